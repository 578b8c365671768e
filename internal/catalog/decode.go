package catalog

import (
	"encoding/json"
	"fmt"
)

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldPrice       = "price"
)

// Problem describes why a field fell back to its default.
type Problem string

const (
	ProblemMissing    Problem = "missing"
	ProblemMismatched Problem = "mismatched"
	ProblemNotObject  Problem = "not an object"
)

// Report lists the fields of one document that were replaced by defaults.
type Report struct {
	Key       string
	Defaulted map[string]Problem
}

// Malformed reports whether any field was defaulted.
func (r Report) Malformed() bool {
	return len(r.Defaulted) > 0
}

func (r Report) String() string {
	return fmt.Sprintf("document %q defaulted fields %v", r.Key, r.Defaulted)
}

// Decode maps a raw document to a Product. It never fails: a missing or mistyped
// name or description becomes "", a missing or non-numeric price becomes 0.
// A body that is not a JSON object yields a product with every field defaulted.
func Decode(doc Document) (Product, Report) {
	report := Report{Key: doc.Key}
	product := Product{ID: ProductID(doc.Key)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc.Data, &fields); err != nil || fields == nil {
		report.Defaulted = map[string]Problem{
			fieldName:        ProblemNotObject,
			fieldDescription: ProblemNotObject,
			fieldPrice:       ProblemNotObject,
		}
		return product, report
	}

	product.Name = stringField(fields, fieldName, &report)
	product.Description = stringField(fields, fieldDescription, &report)
	product.Price = numberField(fields, fieldPrice, &report)
	return product, report
}

// DecodeAll decodes every document in order and returns the reports of the malformed ones.
func DecodeAll(docs []Document) ([]Product, []Report) {
	products := make([]Product, 0, len(docs))
	var malformed []Report
	for _, doc := range docs {
		p, report := Decode(doc)
		products = append(products, p)
		if report.Malformed() {
			malformed = append(malformed, report)
		}
	}
	return products, malformed
}

func stringField(fields map[string]json.RawMessage, key string, report *Report) string {
	raw, ok := fields[key]
	if !ok {
		report.defaulted(key, ProblemMissing)
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		report.defaulted(key, ProblemMismatched)
		return ""
	}
	return s
}

func numberField(fields map[string]json.RawMessage, key string, report *Report) float64 {
	raw, ok := fields[key]
	if !ok {
		report.defaulted(key, ProblemMissing)
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || isNull(raw) {
		report.defaulted(key, ProblemMismatched)
		return 0
	}
	return f
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func (r *Report) defaulted(key string, p Problem) {
	if r.Defaulted == nil {
		r.Defaulted = make(map[string]Problem)
	}
	r.Defaulted[key] = p
}
