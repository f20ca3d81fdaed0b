package catalog

import "github.com/pario-ai/aigateway/pkg/models"

func intPtr(v int) *int { return &v }

func f64(v float64) *float64 { return &v }

func tokenPrice(input float64, output *float64) models.Price {
	return models.Price{Token: &models.TokenPrice{InputValue: input, OutputValue: output}}
}

func pixelPrice(w, h int, q models.ImageQuality, v float64) models.Price {
	return models.Price{Pixel: &models.PixelPrice{Width: w, Height: h, Quality: q, Value: v}}
}

func builtin() []models.Provider {
	text := models.Category{GenerationType: models.GenerationText, ModalType: models.UniModal}
	textMulti := models.Category{GenerationType: models.GenerationText, ModalType: models.MultiModal}
	image := models.Category{GenerationType: models.GenerationImage, ModalType: models.MultiModal}
	embedding := models.Category{GenerationType: models.GenerationEmbedding, ModalType: models.UniModal}
	realtime := []models.ProcessType{models.ProcessRealTime}
	chatEndpoint := []models.Endpoint{{Name: "/chat/completions"}}

	return []models.Provider{
		{
			Name:        "azure_openai",
			Label:       "Azure OpenAI",
			Description: "Azure OpenAI provider",
			Models: []models.Model{
				{
					Name:          "gpt-35-turbo",
					Label:         "GPT-3.5 Turbo",
					Description:   "GPT-3.5 Turbo model",
					ContextWindow: intPtr(16385),
					TrainingData:  "Sep 2021",
					Category:      text,
					Enabled:       true,
					ProcessTypes:  realtime,
				},
				{
					Name:          "gpt-4",
					Label:         "GPT-4",
					Description:   "GPT-4 model",
					ContextWindow: intPtr(8192),
					TrainingData:  "Sep 2021",
					Prices:        []models.Price{tokenPrice(30.00, f64(60.00))},
					Category:      text,
					Enabled:       true,
					ProcessTypes:  realtime,
				},
				{
					Name:         "dall-e-2",
					Label:        "DALL·E-2",
					Description:  "DALL·E-2 model for image generation",
					TrainingData: "Nov 2022",
					Prices: []models.Price{
						pixelPrice(1024, 1024, "", 0.020),
						pixelPrice(512, 512, "", 0.018),
						pixelPrice(256, 256, "", 0.016),
					},
					Category:     image,
					Enabled:      true,
					ProcessTypes: realtime,
				},
				{
					Name:         "dall-e-3",
					Label:        "DALL·E-3",
					Description:  "DALL·E-3 model for advanced image generation",
					TrainingData: "Nov 2023",
					Prices: []models.Price{
						pixelPrice(1024, 1024, models.QualityStandard, 0.040),
						pixelPrice(1792, 1024, models.QualityStandard, 0.080),
						pixelPrice(1024, 1024, models.QualityHD, 0.080),
						pixelPrice(1792, 1024, models.QualityHD, 0.120),
					},
					Category:     image,
					Enabled:      true,
					ProcessTypes: []models.ProcessType{models.ProcessRealTime, models.ProcessStream},
				},
				{
					Name:          "gpt-4o",
					Label:         "GPT-4o",
					Description:   "GPT-4 multimodal",
					ContextWindow: intPtr(128000),
					TrainingData:  "Oct 2023",
					Prices: []models.Price{
						tokenPrice(2.50, f64(10.00)),
						pixelPrice(1024, 1024, models.QualityStandard, 0.001913),
					},
					Category:     textMulti,
					Enabled:      true,
					ProcessTypes: []models.ProcessType{models.ProcessRealTime, models.ProcessStream},
				},
				{
					Name:          "gpt-4o-mini",
					Label:         "GPT-4o Mini",
					Description:   "GPT-4o Smaller Variant",
					ContextWindow: intPtr(64000),
					TrainingData:  "Oct 2023",
					Prices: []models.Price{
						tokenPrice(0.15, f64(0.60)),
						pixelPrice(1024, 1024, models.QualityStandard, 0.003825),
					},
					Category:     textMulti,
					Enabled:      true,
					ProcessTypes: realtime,
				},
				{
					Name:         "text-embedding-ada-002",
					Label:        "Text Embedding Ada 002",
					Description:  "Ada 002 for embedding",
					Prices:       []models.Price{tokenPrice(0.10, nil)},
					Category:     embedding,
					Enabled:      true,
					ProcessTypes: realtime,
				},
				{
					Name:         "gpt-4o-batch",
					Label:        "GPT-4o Batch",
					Description:  "GPT-4o for batch requests",
					Endpoints:    chatEndpoint,
					Prices:       []models.Price{tokenPrice(2.50, f64(7.50))},
					Category:     text,
					Enabled:      true,
					ProcessTypes: []models.ProcessType{models.ProcessBatch},
				},
				{
					Name:         "gpt-4o-mini-batch",
					Label:        "GPT-4o Mini Batch",
					Description:  "GPT-4o smaller variant for batch requests",
					Endpoints:    chatEndpoint,
					Prices:       []models.Price{tokenPrice(0.075, f64(0.30))},
					Category:     text,
					Enabled:      true,
					ProcessTypes: []models.ProcessType{models.ProcessBatch},
				},
			},
		},
	}
}
