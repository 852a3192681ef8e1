package rewrite

import (
	"fmt"
	"strings"

	"github.com/DeusData/builder-migrate/internal/builder"
)

func (e *Emitter) list(items []string) string {
	if e.rw.opts.MultilineSetters && len(items) > 0 {
		return "vec![\n" + strings.Join(items, ",\n") + "\n]"
	}
	return "vec![" + strings.Join(items, ", ") + "]"
}

func nestedArg(c *builder.Closure, call builder.Call) (*builder.Closure, error) {
	if len(call.Args) != 1 || call.Args[0].Kind != builder.ArgNested {
		return nil, structural(c.BuilderType, call.Span, "`%s` expects a builder closure", call.Field)
	}
	return call.Args[0].Closure, nil
}

func noPrelude(c *builder.Closure) error {
	if len(c.Prelude) > 0 {
		return structural(c.BuilderType, c.Span, "statements before the chain are not supported")
	}
	return nil
}

// rewriteComponents emits the list of action rows.
func rewriteComponents(e *Emitter, c *builder.Closure) (string, error) {
	if err := noPrelude(c); err != nil {
		return "", err
	}
	rows := make([]string, 0, len(c.Chain.Calls))
	for _, call := range c.Chain.Calls {
		if call.Field != "create_action_row" {
			return "", structural(c.BuilderType, call.Span, "unexpected call `%s`", call.Field)
		}
		row, err := nestedArg(c, call)
		if err != nil {
			return "", err
		}
		text, err := rewriteRow(e, row)
		if err != nil {
			return "", err
		}
		rows = append(rows, text)
	}
	return e.list(rows), nil
}

// rewriteRow emits one action row. A row holds buttons or a single select
// menu; buttons win when both are configured.
func rewriteRow(e *Emitter, c *builder.Closure) (string, error) {
	if err := noPrelude(c); err != nil {
		return "", err
	}
	var buttons []string
	var menu string
	for _, call := range c.Chain.Calls {
		switch call.Field {
		case "create_button":
			nested, err := nestedArg(c, call)
			if err != nil {
				return "", err
			}
			text, err := rewriteButton(e, nested)
			if err != nil {
				return "", err
			}
			buttons = append(buttons, text)
		case "add_button":
			buttons = append(buttons, e.Args(call.Args))
		case "create_select_menu":
			nested, err := nestedArg(c, call)
			if err != nil {
				return "", err
			}
			text, err := rewriteSelectMenu(e, nested)
			if err != nil {
				return "", err
			}
			menu = text
		case "add_select_menu":
			menu = e.Args(call.Args)
		case "create_input_text", "add_input_text":
			return "", structural(c.BuilderType, call.Span, "input text components are not supported in action rows")
		default:
			return "", structural(c.BuilderType, call.Span, "unexpected call `%s`", call.Field)
		}
	}

	switch {
	case len(buttons) > 0:
		if menu != "" {
			e.Note(c.Span, "a row holds buttons or a select menu; the select menu is dropped")
		}
		return "CreateActionRow::Buttons(" + e.list(buttons) + ")", nil
	case menu != "":
		return "CreateActionRow::SelectMenu(" + menu + ")", nil
	default:
		return "", structural(c.BuilderType, c.Span, "empty action row")
	}
}

// rewriteButton picks the link constructor when a url is set.
func rewriteButton(e *Emitter, c *builder.Closure) (string, error) {
	var url, id *string
	var setters []setter
	for _, call := range c.Chain.Calls {
		args := e.Args(call.Args)
		switch call.Field {
		case "url":
			url = &args
		case "custom_id":
			id = &args
		default:
			setters = append(setters, setter{field: call.Field, args: args})
		}
	}

	var ctor string
	switch {
	case url != nil:
		if id != nil {
			e.Note(c.Span, "link buttons have no custom_id; it is dropped")
		}
		ctor = fmt.Sprintf("CreateButton::new_link(%s)", *url)
	case id != nil:
		ctor = fmt.Sprintf("CreateButton::new(%s)", *id)
	default:
		return "", structural(c.BuilderType, c.Span, "button needs a custom_id or a url")
	}
	return e.assemble(c, ctor, setters), nil
}

// rewriteSelectMenu emits a string select menu with its options inlined.
func rewriteSelectMenu(e *Emitter, c *builder.Closure) (string, error) {
	id := ""
	options := "vec![]"
	hasOptions := false
	var setters []setter
	for _, call := range c.Chain.Calls {
		switch call.Field {
		case "custom_id":
			id = e.Args(call.Args)
		case "options":
			nested, err := nestedArg(c, call)
			if err != nil {
				return "", err
			}
			text, err := rewriteSelectOptions(e, nested)
			if err != nil {
				return "", err
			}
			options = text
			hasOptions = len(nested.Chain.Calls) > 0
		default:
			setters = append(setters, setter{field: call.Field, args: e.Args(call.Args)})
		}
	}
	if id == "" {
		e.Note(c.Span, "%s requires `custom_id`, which is never set", c.BuilderType)
		id = Placeholder
	}
	if !hasOptions {
		e.Note(c.Span, "%s has no options; a string select menu needs at least one", c.BuilderType)
	}
	ctor := fmt.Sprintf("CreateSelectMenu::new(%s, CreateSelectMenuKind::String { options: %s })", id, options)
	return e.assemble(c, ctor, setters), nil
}

// rewriteSelectOptions emits the options of a select menu as a list.
func rewriteSelectOptions(e *Emitter, c *builder.Closure) (string, error) {
	if err := noPrelude(c); err != nil {
		return "", err
	}
	options := make([]string, 0, len(c.Chain.Calls))
	for _, call := range c.Chain.Calls {
		if call.Field != "create_option" {
			return "", structural(c.BuilderType, call.Span, "unexpected call `%s`", call.Field)
		}
		opt, err := nestedArg(c, call)
		if err != nil {
			return "", err
		}
		text, err := e.Closure(opt)
		if err != nil {
			return "", err
		}
		options = append(options, text)
	}
	return e.list(options), nil
}
