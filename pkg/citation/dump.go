package citation

// Dump returns a JSON-friendly view of c. Empty metadata fields are left
// out.
func Dump(c Citation) map[string]any {
	b := c.Common()
	out := map[string]any{
		"kind":      c.Kind(),
		"text":      b.Text,
		"span":      b.Span,
		"full_span": b.FullSpan,
	}
	if len(b.Groups) > 0 {
		out["groups"] = b.Groups
	}

	meta := map[string]any{}
	put := func(key, value string) {
		if value != "" {
			meta[key] = value
		}
	}
	put("pin_cite", b.PinCite)
	put("parenthetical", b.Parenthetical)
	if !b.PinCiteSpan.IsZero() {
		meta["pin_cite_span"] = b.PinCiteSpan
	}

	if rc, ok := c.(ResourceCitation); ok {
		r := rc.Resource()
		if r.Year != 0 {
			out["year"] = r.Year
		}
		put("month", r.Month)
		put("day", r.Day)
		if r.EditionGuess != nil {
			out["edition"] = r.EditionGuess.Name
		} else if eds := r.Editions(); len(eds) > 0 {
			names := make([]string, 0, len(eds))
			for _, e := range eds {
				names = append(names, e.Name+" ("+e.Reporter+")")
			}
			out["candidate_editions"] = names
		}
		out["corrected"] = CorrectedCitation(c)
	}

	switch c := c.(type) {
	case *FullCaseCitation:
		put("plaintiff", c.Plaintiff)
		put("defendant", c.Defendant)
		put("extra", c.Extra)
		put("court", c.Court)
		put("antecedent_guess", c.AntecedentGuess)
	case *FullLawCitation:
		put("publisher", c.Publisher)
	case *ShortCaseCitation:
		put("antecedent_guess", c.AntecedentGuess)
		put("court", c.Court)
	case *SupraCitation:
		put("antecedent_guess", c.AntecedentGuess)
		put("volume", c.Volume)
	case *ReferenceCitation:
		put("name", c.Name)
		put("plaintiff", c.Plaintiff)
		put("defendant", c.Defendant)
	}
	if len(meta) > 0 {
		out["metadata"] = meta
	}
	return out
}
