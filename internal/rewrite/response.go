package rewrite

import (
	"fmt"
	"strings"

	"github.com/DeusData/builder-migrate/internal/builder"
)

const messagePayload = "CreateInteractionResponseMessage"

type responseVariant struct {
	name    string
	payload string // "" when the variant carries no data
}

// responseVariants maps InteractionResponseType tags to the variants of
// the 0.12 CreateInteractionResponse enum.
var responseVariants = map[string]responseVariant{
	"Pong":                             {name: "Pong"},
	"ChannelMessageWithSource":         {name: "Message", payload: messagePayload},
	"DeferredChannelMessageWithSource": {name: "Defer", payload: messagePayload},
	"DeferredUpdateMessage":            {name: "Acknowledge"},
	"UpdateMessage":                    {name: "UpdateMessage", payload: messagePayload},
	"Autocomplete":                     {name: "Autocomplete", payload: "CreateAutocompleteResponse"},
	"Modal":                            {name: "Modal", payload: "CreateModal"},
}

// Unknown or missing kinds produce a message, the 0.11 default.
var defaultResponseVariant = responseVariant{name: "Message", payload: messagePayload}

func lookupVariant(kind *builder.Call) responseVariant {
	if kind == nil || len(kind.Args) != 1 || kind.Args[0].Kind != builder.ArgLiteral {
		return defaultResponseVariant
	}
	path := kind.Args[0].Path
	if len(path) == 0 {
		return defaultResponseVariant
	}
	if v, ok := responseVariants[path[len(path)-1]]; ok {
		return v
	}
	return defaultResponseVariant
}

func rewriteResponse(e *Emitter, c *builder.Closure) (string, error) {
	if len(c.Prelude) > 0 {
		return "", structural(c.BuilderType, c.Span, "statements before the response chain are not supported")
	}

	var kind *builder.Call
	var data *builder.Closure
	for i := range c.Chain.Calls {
		call := &c.Chain.Calls[i]
		switch call.Field {
		case "kind":
			kind = call
		case "interaction_response_data":
			if len(call.Args) != 1 || call.Args[0].Kind != builder.ArgNested {
				return "", structural(c.BuilderType, call.Span, "interaction_response_data expects a builder closure")
			}
			data = call.Args[0].Closure
		default:
			return "", structural(c.BuilderType, call.Span, "unexpected call `%s`", call.Field)
		}
	}

	v := lookupVariant(kind)
	if v.payload == "" {
		if data != nil {
			e.Note(data.Span, "%s responses carry no data; the response data is dropped", v.name)
		}
		return "CreateInteractionResponse::" + v.name, nil
	}

	var calls []builder.Call
	if data != nil {
		if len(data.Prelude) > 0 {
			return "", structural(data.BuilderType, data.Span, "statements before the response data chain are not supported")
		}
		calls = data.Chain.Calls
	}
	ctorArgs, setters := e.partition(v.payload, e.rw.reg.Required(v.payload), calls, c.Span)
	var b strings.Builder
	fmt.Fprintf(&b, "CreateInteractionResponse::%s(%s::new(%s)", v.name, v.payload, strings.Join(ctorArgs, ", "))
	b.WriteString(e.setters(setters))
	b.WriteString(")")
	return b.String(), nil
}
