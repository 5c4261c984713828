// Package catalog defines the fixed list of SDG-14 indicator datasets served
// by the dashboard. The list is enumerable and built once at startup; there
// is no runtime registration.
package catalog

import "github.com/vidanagua/marine-indicators-service/internal/domain"

// configs holds the built-in dataset descriptors. CSV and metadata paths are
// relative to the configured data base URL. Column maps translate the long
// OWID/UN headers into the semantic field names the API exposes.
var configs = []domain.DatasetConfig{
	{
		Key:          "marine-protected-areas",
		Label:        "Áreas Marinhas Protegidas",
		CSVPath:      "marine-protected-areas.csv",
		MetadataPath: "marine-protected-areas.metadata.json",
		Columns: map[string]string{
			"Marine protected areas (% of territorial waters)": "coverage",
		},
		MinYear:        1950,
		MaxYear:        2030,
		Indicator:      "coverage",
		IndicatorLabel: "% Áreas Protegidas",
		Description:    "Porcentagem de áreas marinhas protegidas em relação às águas territoriais",
	},
	{
		Key:          "coastal-eutrophication",
		Label:        "Eutrofização Costeira",
		CSVPath:      "coastal-eutrophication.csv",
		MetadataPath: "coastal-eutrophication.metadata.json",
		Columns: map[string]string{
			"14.1.1 - Coastal eutrophication: Total Nitrogen (TN) (kilograms of nitrogen from algae biomass per sq. km. of river basin area per day) - EN_MAR_TN": "nitrogen",
		},
		MinYear:        2005,
		MaxYear:        2030,
		Indicator:      "nitrogen",
		IndicatorLabel: "Nitrogênio (kg/km²/dia)",
		Description:    "Níveis de nitrogênio que indicam eutrofização costeira",
	},
	{
		Key:          "ocean-acidification",
		Label:        "Acidificação dos Oceanos",
		CSVPath:      "ocean-acidification.csv",
		MetadataPath: "ocean-acidification.metadata.json",
		Columns: map[string]string{
			"14.3.1 - Average marine acidity (pH) measured at agreed representative sampling stations - EN_MAR_OACID": "ph",
		},
		MinYear:        1985,
		MaxYear:        2030,
		Indicator:      "ph",
		IndicatorLabel: "pH médio",
		Description:    "Medição da acidez média dos oceanos",
	},
	{
		Key:          "ocean-health-index",
		Label:        "Índice de Saúde dos Oceanos (OHI)",
		CSVPath:      "ocean-health-index.csv",
		MetadataPath: "ocean-health-index.metadata.json",
		Columns: map[string]string{
			"Ocean Health Index (score)": "score",
		},
		MinYear:        2012,
		MaxYear:        2030,
		Indicator:      "score",
		IndicatorLabel: "Pontuação OHI",
		Description:    "Índice de saúde dos oceanos (0-100)",
	},
	{
		Key:          "illegal-fishing",
		Label:        "Combate à Pesca Ilegal",
		CSVPath:      "regulation-illegal-fishing.csv",
		MetadataPath: "regulation-illegal-fishing.metadata.json",
		Columns: map[string]string{
			"14.6.1 - Progress by countries in the degree of implementation of international instruments aiming to combat illegal, unreported and unregulated fishing (level of implementation: 1 lowest to 5 highest) - ER_REG_UNFCIM": "implementation",
		},
		MinYear:        2018,
		MaxYear:        2030,
		Indicator:      "implementation",
		IndicatorLabel: "Nível de Implementação",
		Description:    "Progresso na implementação de instrumentos contra pesca ilegal",
	},
}

// Configs returns the dataset descriptors in catalog order.
func Configs() []domain.DatasetConfig {
	out := make([]domain.DatasetConfig, len(configs))
	copy(out, configs)
	return out
}

// Lookup returns the descriptor for a dataset key.
func Lookup(key string) (domain.DatasetConfig, bool) {
	for _, cfg := range configs {
		if cfg.Key == key {
			return cfg, true
		}
	}
	return domain.DatasetConfig{}, false
}
