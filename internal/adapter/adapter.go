package adapter

import (
	"github.com/avasseur/bdnb-rag/internal/api"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

func ToChatResponse(answer *buildingModel.Answer) api.ChatResponse {
	response := api.ChatResponse{
		Response:   answer.Text,
		Route:      string(answer.Route),
		Department: answer.Department,
		Cached:     answer.Cached,
	}

	if answer.Raw != nil {
		response.RawData = &api.AggregateData{
			Value: answer.Raw.Value,
			Count: answer.Raw.Count,
			Unit:  answer.Raw.Unit,
		}
	}

	for _, doc := range answer.Sources {
		response.Sources = append(response.Sources, api.SourceDoc{
			Id:           doc.Id,
			Text:         doc.Text,
			Score:        doc.Score,
			Commune:      doc.Commune,
			Category:     doc.Category,
			EnergyLabel:  doc.EnergyLabel,
			ThermalSieve: doc.ThermalSieve,
		})
	}
	return response
}

func BadRequest(code int, message string) api.ErrorResponse {
	return api.ErrorResponse{
		Code:    code,
		Message: message,
	}
}
