package taxrates

import (
	"encoding/json"
	"time"
)

// Wire shapes. JSON names are snake_case; the mapping to TaxRate happens here
// and nowhere else.

type taxRateResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Rate        json.Number `json:"rate"`
	Description string      `json:"description"`
	IsDefault   bool        `json:"is_default"`
	SequenceNo  int         `json:"sequence_no"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type listResponse struct {
	Data []taxRateResponse `json:"data"`
}

type createRequest struct {
	Name        string      `json:"name"`
	Rate        json.Number `json:"rate"`
	Description string      `json:"description"`
	IsDefault   bool        `json:"is_default"`
}

type patchRequest struct {
	Name        *string      `json:"name,omitempty"`
	Rate        *json.Number `json:"rate,omitempty"`
	Description *string      `json:"description,omitempty"`
	SequenceNo  *int         `json:"sequence_no,omitempty"`
}

func toResponse(t TaxRate) taxRateResponse {
	return taxRateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Rate:        json.Number(t.Rate.String()),
		Description: t.Description,
		IsDefault:   t.IsDefault,
		SequenceNo:  t.SequenceNo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toListResponse(rates []TaxRate) listResponse {
	out := listResponse{Data: make([]taxRateResponse, 0, len(rates))}
	for _, r := range rates {
		out.Data = append(out.Data, toResponse(r))
	}
	return out
}

func (req createRequest) input() CreateInput {
	return CreateInput{
		Name:        req.Name,
		Rate:        req.Rate.String(),
		Description: req.Description,
		IsDefault:   req.IsDefault,
	}
}

func (req patchRequest) patch() Patch {
	p := Patch{
		Name:        req.Name,
		Description: req.Description,
		SequenceNo:  req.SequenceNo,
	}
	if req.Rate != nil {
		rate := req.Rate.String()
		p.Rate = &rate
	}
	return p
}
