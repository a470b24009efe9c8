package editor

import (
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/foundation/normalization"
	"git.home.luguber.info/inful/mdcms/internal/markup"
)

// CommandName identifies a toolbar command.
type CommandName string

const (
	CmdBold          CommandName = "bold"
	CmdItalic        CommandName = "italic"
	CmdCode          CommandName = "code"
	CmdHeading       CommandName = "heading"
	CmdBlockquote    CommandName = "blockquote"
	CmdUnorderedList CommandName = "unorderedList"
	CmdLink          CommandName = "link"
	CmdImage         CommandName = "image"
)

var commandNormalizer = normalization.NewNormalizer(map[string]CommandName{
	"bold":           CmdBold,
	"strong":         CmdBold,
	"italic":         CmdItalic,
	"emphasis":       CmdItalic,
	"code":           CmdCode,
	"heading":        CmdHeading,
	"blockquote":     CmdBlockquote,
	"quote":          CmdBlockquote,
	"unorderedlist":  CmdUnorderedList,
	"unordered-list": CmdUnorderedList,
	"list":           CmdUnorderedList,
	"link":           CmdLink,
	"image":          CmdImage,
}, "")

// Command is one toolbar action. Level is used by heading, Image by image.
type Command struct {
	Name  CommandName
	Level int
	Image *ImageFile
}

// Bold, Italic and friends build the argument-free commands.
func Bold() Command          { return Command{Name: CmdBold} }
func Italic() Command        { return Command{Name: CmdItalic} }
func Code() Command          { return Command{Name: CmdCode} }
func Blockquote() Command    { return Command{Name: CmdBlockquote} }
func UnorderedList() Command { return Command{Name: CmdUnorderedList} }
func Link() Command          { return Command{Name: CmdLink} }

// Heading toggles a heading of the given level on the caret's line.
func Heading(level int) Command { return Command{Name: CmdHeading, Level: level} }

// Image uploads file and inserts it at the caret.
func Image(file ImageFile) Command { return Command{Name: CmdImage, Image: &file} }

// ParseCommand maps a command name received from a transport (case
// insensitive, a few aliases accepted) to a Command. Level is only
// meaningful for headings.
func ParseCommand(name string, level int) (Command, error) {
	cmd, err := commandNormalizer.NormalizeWithError(name)
	if err != nil || cmd == "" {
		return Command{}, errors.ValidationError("unknown command").
			WithContext("command", name).
			WithContext("valid", commandNormalizer.ValidKeys()).
			Build()
	}
	c := Command{Name: cmd}
	if cmd == CmdHeading {
		c.Level = level
	}
	return c, nil
}

// Operator returns the markup operator implementing c. Image commands have
// no operator; they run through the image controller.
func (c Command) Operator() (markup.Operator, error) {
	switch c.Name {
	case CmdBold:
		return markup.Pair(markup.Bold), nil
	case CmdItalic:
		return markup.Pair(markup.Italic), nil
	case CmdCode:
		return markup.Pair(markup.Code), nil
	case CmdHeading:
		p, err := markup.Heading(c.Level)
		if err != nil {
			return nil, err
		}
		return markup.LinePrefix(p), nil
	case CmdBlockquote:
		return markup.LinePrefix(markup.Blockquote), nil
	case CmdUnorderedList:
		return markup.LinePrefix(markup.UnorderedList), nil
	case CmdLink:
		return markup.LinkOperator{}, nil
	default:
		return nil, errors.ValidationError("command has no operator").
			WithContext("command", string(c.Name)).
			Build()
	}
}
