package taxrates

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/contractnest/contractnest/internal/validation"
)

// Form field names.
const (
	FieldName        = "name"
	FieldRate        = "rate"
	FieldDescription = "description"
)

// Field limits.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxDecimals          = 2
)

var (
	MinRate = decimal.Zero
	MaxRate = decimal.NewFromInt(100)

	namePattern = regexp.MustCompile(`^[A-Za-z0-9 ._\-()%&/]+$`)
)

// Schema validates tax rate form values on both sides of the API.
var Schema = validation.NewSchema(
	validation.Field{Name: FieldName, Label: "Name", Rules: []validation.Rule{
		validation.Required(),
		validation.MaxLength(MaxNameLength),
		validation.Pattern(namePattern, "Name can only contain letters, numbers, spaces and . _ - ( ) % & /"),
	}},
	validation.Field{Name: FieldRate, Label: "Rate", Rules: []validation.Rule{
		validation.Required(),
		validation.DecimalRange(MinRate, MaxRate),
		validation.MaxDecimals(MaxDecimals),
	}},
	validation.Field{Name: FieldDescription, Label: "Description", Rules: []validation.Rule{
		validation.MaxLength(MaxDescriptionLength),
	}},
)

// ValidateField runs the rule chain for one field against the whole form.
func ValidateField(field string, values validation.Values) *validation.Violation {
	return Schema.Validate(field, values)
}

// Values converts a stored rate into form values.
func (t TaxRate) Values() validation.Values {
	return validation.Values{
		FieldName:        t.Name,
		FieldRate:        t.Rate.String(),
		FieldDescription: t.Description,
	}
}

func (in CreateInput) values() validation.Values {
	return validation.Values{
		FieldName:        in.Name,
		FieldRate:        in.Rate,
		FieldDescription: in.Description,
	}
}

func normaliseCreate(in CreateInput) (TaxRate, error) {
	if err := Schema.ValidateAll(in.values()).Err(); err != nil {
		return TaxRate{}, err
	}
	rate, _ := validation.ParseDecimal(in.Rate)
	return TaxRate{
		Name:        strings.TrimSpace(in.Name),
		Rate:        rate,
		Description: strings.TrimSpace(in.Description),
		IsDefault:   in.IsDefault,
	}, nil
}

func normalisePatch(p Patch) (Changes, error) {
	values := validation.Values{}
	var fields []string
	if p.Name != nil {
		values[FieldName] = *p.Name
		fields = append(fields, FieldName)
	}
	if p.Rate != nil {
		values[FieldRate] = *p.Rate
		fields = append(fields, FieldRate)
	}
	if p.Description != nil {
		values[FieldDescription] = *p.Description
		fields = append(fields, FieldDescription)
	}
	errs := Schema.ValidateOnly(values, fields...)
	if p.SequenceNo != nil && *p.SequenceNo < 0 {
		errs.Add(validation.Violation{
			Field:   "sequence_no",
			Kind:    validation.KindOutOfRange,
			Message: "Sequence number must be zero or greater, got " + strconv.Itoa(*p.SequenceNo),
		})
	}
	if err := errs.Err(); err != nil {
		return Changes{}, err
	}

	var ch Changes
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		ch.Name = &name
	}
	if p.Rate != nil {
		rate, _ := validation.ParseDecimal(*p.Rate)
		ch.Rate = &rate
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		ch.Description = &desc
	}
	ch.SequenceNo = p.SequenceNo
	return ch, nil
}
