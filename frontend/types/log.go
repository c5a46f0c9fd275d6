package types

import "log/slog"

// Slog wraps a Type so that it is only rendered if the record is emitted
func Slog(t Type) slog.LogValuer {
	return typeLogValuer{t}
}

type typeLogValuer struct{ Type }

func (l typeLogValuer) LogValue() slog.Value {
	if l.Type == nil {
		return slog.StringValue("<none>")
	}
	return slog.StringValue(l.Type.String())
}
