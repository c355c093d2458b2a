package project

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	if p.TemplateID != nil {
		id := *p.TemplateID
		out.TemplateID = &id
	}
	out.Elements = make([]Element, len(p.Elements))
	for i, el := range p.Elements {
		el.Props = cloneMap(el.Props)
		out.Elements[i] = el
	}
	return out
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	out := *p
	out.ProductID = cloneString(p.ProductID)
	out.FormatID = cloneString(p.FormatID)
	out.PaperID = cloneString(p.PaperID)
	out.CoverTypeID = cloneString(p.CoverTypeID)
	out.LockedVersionID = cloneString(p.LockedVersionID)
	if p.LockedAt != nil {
		t := *p.LockedAt
		out.LockedAt = &t
	}
	out.Settings = cloneMap(p.Settings)
	if out.Settings == nil {
		out.Settings = map[string]any{}
	}
	return &out
}

// ClonePages deep-copies a page slice, preserving nil.
func ClonePages(pages []Page) []Page {
	if pages == nil {
		return nil
	}
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
