package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/davidbz/llmspend/internal/catalog"
	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/observability"
	"github.com/davidbz/llmspend/internal/report"
	"github.com/davidbz/llmspend/internal/simulator"
)

// Handler handles HTTP requests.
type Handler struct {
	sim      *simulator.Simulator
	loader   simulator.ScenarioLoader
	reporter *report.Reporter
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(sim *simulator.Simulator, loader simulator.ScenarioLoader, reporter *report.Reporter) *Handler {
	return &Handler{
		sim:      sim,
		loader:   loader,
		reporter: reporter,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// HandleModels serves the resolved price table. ?refresh=true forces a
// feed refresh; ?top=N returns only the top N models per vendor.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	table, err := h.sim.Prices(ctx, r.URL.Query().Get("refresh") == "true")
	if err != nil {
		observability.FromContext(ctx).Error("price resolution failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if top := r.URL.Query().Get("top"); top != "" {
		var n int
		if _, scanErr := fmt.Sscanf(top, "%d", &n); scanErr != nil || n <= 0 {
			http.Error(w, "top must be a positive integer", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]interface{}{
			"updated_at": table.UpdatedAt,
			"by_vendor":  catalog.TopPerVendor(table, n),
		})
		return
	}

	models := make([]domain.ModelPrice, 0, len(table.Models))
	for _, price := range table.Models {
		models = append(models, price)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	writeJSON(w, map[string]interface{}{
		"updated_at": table.UpdatedAt,
		"models":     models,
	})
}

// HandleScenarios lists the scenarios available on disk.
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	paths, err := h.loader.Discover()
	if err != nil {
		observability.FromContext(ctx).Error("scenario discovery failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type entry struct {
		Path string `json:"path"`
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	}

	entries := make([]entry, 0, len(paths))
	for _, path := range paths {
		e := entry{Path: path}
		// A file that fails to load still shows up in the listing.
		if scenario, loadErr := h.loader.Load(path); loadErr == nil {
			e.ID = scenario.ID
			e.Name = scenario.Name
		}
		entries = append(entries, e)
	}

	writeJSON(w, map[string]interface{}{"scenarios": entries})
}

// HandleSimulate computes the breakdown for a scenario posted inline.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var scenario domain.Scenario
	if err := json.NewDecoder(r.Body).Decode(&scenario); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	ctx = observability.WithScenario(ctx, scenario.ID)
	logger := observability.FromContext(ctx)
	logger.Info("simulate request received", zap.String("name", scenario.Name))

	breakdown, err := h.sim.Run(ctx, &scenario, false)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, domain.ScenarioResult{
		ScenarioID: scenario.ID,
		Name:       scenario.Name,
		Breakdown:  breakdown,
	})
}

// compareRequest selects the scenarios for a comparison: file paths,
// inline definitions, or both.
type compareRequest struct {
	Paths     []string          `json:"paths,omitempty"`
	Scenarios []domain.Scenario `json:"scenarios,omitempty"`
}

// HandleCompare runs a batch of scenarios and returns the ranked
// comparison.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Paths) == 0 && len(req.Scenarios) == 0 {
		http.Error(w, "at least one of paths or scenarios is required", http.StatusBadRequest)
		return
	}

	comparison, err := h.sim.RunPaths(ctx, req.Paths, false)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	results := comparison.Results
	failures := comparison.Failures
	for i := range req.Scenarios {
		scenario := &req.Scenarios[i]
		breakdown, runErr := h.sim.Run(ctx, scenario, false)
		if runErr != nil {
			failures = append(failures, domain.ScenarioFailure{
				ScenarioID: scenario.ID,
				Name:       scenario.Name,
				Error:      runErr.Error(),
			})
			continue
		}
		results = append(results, domain.ScenarioResult{
			ScenarioID: scenario.ID,
			Name:       scenario.Name,
			Breakdown:  breakdown,
		})
	}

	writeJSON(w, domain.NewComparison(results, failures))
}

// HandleDashboard serves the HTML comparison of every scenario on disk.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	comparison, err := h.sim.RunAll(ctx, false)
	if err != nil {
		observability.FromContext(ctx).Error("dashboard run failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page, err := h.reporter.RenderComparison(comparison, report.FormatHTML)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps computation errors onto status codes: caller
// mistakes (bad scenario, unknown model) are 400s, everything else is
// a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		unknownErr *domain.UnknownModelError
		invalidErr *domain.InvalidScenarioError
	)

	status := http.StatusInternalServerError
	if errors.As(err, &unknownErr) || errors.As(err, &invalidErr) {
		status = http.StatusBadRequest
	}

	http.Error(w, err.Error(), status)
}
