package replicate

import "time"

// Kind names a resource shape returned upstream.
type Kind string

const (
	KindModelSummary Kind = "model_summary"
	KindModel        Kind = "model"
	KindVersion      Kind = "version"
	KindVersionRef   Kind = "version_ref"
	KindPrediction   Kind = "prediction"
	KindCollection   Kind = "collection"
	KindHardware     Kind = "hardware"
	KindExampleRef   Kind = "example_ref"
)

// field is one allowlisted key. When nested is set, object values (or
// arrays of objects) are filtered with that kind's allowlist.
type field struct {
	name   string
	nested Kind
}

var allowlists = map[Kind][]field{
	KindModelSummary: {
		{name: "owner"},
		{name: "name"},
		{name: "description"},
		{name: "visibility"},
		{name: "url"},
		{name: "run_count"},
		{name: "latest_version", nested: KindVersionRef},
	},
	KindModel: {
		{name: "owner"},
		{name: "name"},
		{name: "description"},
		{name: "visibility"},
		{name: "url"},
		{name: "run_count"},
		{name: "github_url"},
		{name: "paper_url"},
		{name: "license_url"},
		{name: "cover_image_url"},
		{name: "default_example", nested: KindExampleRef},
		{name: "latest_version", nested: KindVersion},
	},
	KindVersion: {
		{name: "id"},
		{name: "created_at"},
		{name: "cog_version"},
		{name: "openapi_schema"},
	},
	KindVersionRef: {
		{name: "id"},
		{name: "created_at"},
	},
	KindExampleRef: {
		{name: "id"},
		{name: "status"},
	},
	KindPrediction: {
		{name: "id"},
		{name: "model"},
		{name: "version"},
		{name: "status"},
		{name: "input"},
		{name: "output"},
		{name: "error"},
		{name: "logs"},
		{name: "created_at"},
		{name: "started_at"},
		{name: "completed_at"},
		{name: "metrics"},
		{name: "urls"},
	},
	KindCollection: {
		{name: "name"},
		{name: "slug"},
		{name: "description"},
		{name: "models", nested: KindModelSummary},
	},
	KindHardware: {
		{name: "name"},
		{name: "sku"},
	},
}

// Allowlist returns the field names permitted for kind, in declaration order.
func Allowlist(kind Kind) []string {
	fields := allowlists[kind]
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	return names
}

// Filter returns a copy of obj holding only the fields allowlisted for kind.
// Missing fields are omitted. Unknown kinds yield an empty object.
func Filter(kind Kind, obj Object) Object {
	if obj == nil {
		return nil
	}
	fields := allowlists[kind]
	out := make(Object, len(fields))
	for _, f := range fields {
		val, ok := obj[f.name]
		if !ok {
			continue
		}
		if f.nested != "" {
			out[f.name] = filterNested(f.nested, val)
			continue
		}
		out[f.name] = normalizeValue(val)
	}
	return out
}

// FilterAll applies Filter to every element of objs.
func FilterAll(kind Kind, objs []Object) []Object {
	out := make([]Object, 0, len(objs))
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		out = append(out, Filter(kind, obj))
	}
	return out
}

func filterNested(kind Kind, val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Filter(kind, v)
	case []any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, Filter(kind, m))
			}
		}
		return items
	default:
		// null or a scalar where an object was expected; pass through unchanged
		return val
	}
}

func normalizeValue(val any) any {
	switch v := val.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return val
	}
}
