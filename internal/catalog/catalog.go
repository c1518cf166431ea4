// Package catalog ranks the price table's models, selecting the top
// candidates per vendor by quality tier and version number. It backs
// the models command and the dashboard's model picker.
package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/davidbz/llmspend/internal/domain"
)

// Model tiers, higher is better.
const (
	TierLite     = 1
	TierStandard = 2
	TierPremium  = 3
	TierFlagship = 4
)

const versionParts = 3

var (
	numberPattern        = regexp.MustCompile(`\d+(?:\.\d+)?`)
	contextSuffixPattern = regexp.MustCompile(`-\d+k$`)

	flagshipKeywords = []string{"opus", "pro", "gpt-5", "premier", "o4", "grok-4"}
	premiumKeywords  = []string{"sonnet", "gpt-4.5", "o3", "large"}
	standardKeywords = []string{"haiku", "mini", "flash", "small", "medium", "grok-3"}
	liteKeywords     = []string{"nano", "lite", "micro", "8b", "7b"}

	smallVariantKeywords = []string{"mini", "nano", "lite", "micro"}
)

// RankedModel is one catalog entry with its derived ranking facets.
type RankedModel struct {
	Price   domain.ModelPrice     `json:"price"`
	Tier    int                   `json:"tier"`
	Version [versionParts]float64 `json:"version"`
}

// Tier classifies a model id into a quality tier by naming convention.
// Unrecognized ids land in the standard tier.
func Tier(modelID string) int {
	id := strings.ToLower(modelID)

	if containsAny(id, flagshipKeywords) && !containsAny(id, smallVariantKeywords) {
		return TierFlagship
	}
	if containsAny(id, premiumKeywords) && !containsAny(id, smallVariantKeywords) {
		return TierPremium
	}
	if containsAny(id, standardKeywords) && !containsAny(id, []string{"nano", "lite", "micro"}) {
		return TierStandard
	}
	if containsAny(id, liteKeywords) {
		return TierLite
	}
	return TierStandard
}

// Version extracts up to three numeric components from a model id for
// ordering, so "claude-sonnet-4.5" sorts above "claude-sonnet-4".
func Version(modelID string) [versionParts]float64 {
	var version [versionParts]float64
	for i, match := range numberPattern.FindAllString(modelID, versionParts) {
		value, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		version[i] = value
	}
	return version
}

func containsAny(id string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(id, keyword) {
			return true
		}
	}
	return false
}

// TopPerVendor selects up to maxPerVendor models for each vendor,
// preferring higher tiers, then higher versions. Context-window
// variants of an already selected model ("-128k" suffixes) are skipped.
func TopPerVendor(table *domain.PriceTable, maxPerVendor int) map[string][]RankedModel {
	byVendor := make(map[string][]RankedModel)
	for _, price := range table.Models {
		byVendor[price.Vendor] = append(byVendor[price.Vendor], RankedModel{
			Price:   price,
			Tier:    Tier(price.ID),
			Version: Version(price.ID),
		})
	}

	selected := make(map[string][]RankedModel, len(byVendor))
	for vendor, models := range byVendor {
		sort.Slice(models, func(i, j int) bool {
			if models[i].Tier != models[j].Tier {
				return models[i].Tier > models[j].Tier
			}
			for k := 0; k < versionParts; k++ {
				if models[i].Version[k] != models[j].Version[k] {
					return models[i].Version[k] > models[j].Version[k]
				}
			}
			return models[i].Price.ID < models[j].Price.ID
		})

		picks := make([]RankedModel, 0, maxPerVendor)
		for _, model := range models {
			if hasBaseVariant(picks, model.Price.ID) {
				continue
			}
			picks = append(picks, model)
			if len(picks) >= maxPerVendor {
				break
			}
		}
		selected[vendor] = picks
	}

	return selected
}

// Vendors lists the table's vendors sorted alphabetically.
func Vendors(table *domain.PriceTable) []string {
	seen := make(map[string]struct{})
	for _, price := range table.Models {
		seen[price.Vendor] = struct{}{}
	}

	vendors := make([]string, 0, len(seen))
	for vendor := range seen {
		vendors = append(vendors, vendor)
	}
	sort.Strings(vendors)
	return vendors
}

func hasBaseVariant(picks []RankedModel, modelID string) bool {
	base := contextSuffixPattern.ReplaceAllString(modelID, "")
	for _, pick := range picks {
		if contextSuffixPattern.ReplaceAllString(pick.Price.ID, "") == base {
			return true
		}
	}
	return false
}
