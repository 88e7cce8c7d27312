package sl

import (
	"log/slog"

	"doorcheck/entity"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Secret keeps the first 4 characters of a token and masks the rest.
func Secret(key, value string) slog.Attr {
	switch {
	case value == "":
		return slog.String(key, "?")
	case len(value) <= 8:
		return slog.String(key, "***")
	default:
		return slog.String(key, value[:4]+"***")
	}
}

func Module(mod string) slog.Attr {
	return slog.String("mod", mod)
}

// Operator groups the acting operator's id and role; "none" when nobody is
// authenticated.
func Operator(op *entity.Operator) slog.Attr {
	if op == nil {
		return slog.String("operator", "none")
	}
	return slog.Group("operator",
		slog.String("id", op.Id),
		slog.String("role", string(op.Role)),
	)
}

func Event(id string) slog.Attr {
	return slog.String("event", id)
}

func Registration(id string) slog.Attr {
	return slog.String("registration", id)
}

func Ticket(code string) slog.Attr {
	return slog.String("ticket", code)
}
