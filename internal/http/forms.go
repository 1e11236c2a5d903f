package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campiestivi/campi/internal/domain/model"
)

// formValues echoes the named fields back for re-rendering.
func formValues(r *http.Request, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = strings.TrimSpace(r.PostFormValue(f))
	}
	return out
}

// formParser accumulates field errors while reading typed values.
type formParser struct {
	r      *http.Request
	errors map[string]string
}

func newFormParser(r *http.Request) *formParser {
	return &formParser{r: r, errors: map[string]string{}}
}

func (p *formParser) text(field string) string {
	return strings.TrimSpace(p.r.PostFormValue(field))
}

func (p *formParser) checkbox(field string) bool {
	switch strings.ToLower(p.text(field)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// date reads a YYYY-MM-DD input. Empty is left to model validation.
func (p *formParser) date(field string) time.Time {
	v := p.text(field)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(model.DateLayout, v)
	if err != nil {
		p.errors[field] = "Data non valida."
		return time.Time{}
	}
	return t
}

func (p *formParser) integer(field string) int {
	v := p.text(field)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errors[field] = "Inserisci un numero intero."
		return 0
	}
	return n
}

// cents reads a euro amount such as "250", "250,50" or "1.250,00".
func (p *formParser) cents(field string) int {
	v := strings.ReplaceAll(p.text(field), "€", "")
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		p.errors[field] = "Prezzo non valido."
		return 0
	}
	return int(f*100 + 0.5)
}

func (p *formParser) ok() bool { return len(p.errors) == 0 }
