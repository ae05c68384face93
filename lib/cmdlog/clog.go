package cmdlog

import (
	"log"

	"github.com/charmbracelet/lipgloss"
	"github.com/gotmc/smu2600"
)

var (
	CmdStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	ReplyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	FaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// PrettyFuncs returns query and cmd closures that run TSP text on the
// session and log styled command/reply pairs. Meant for interactive
// poking at the instrument, not for driver code paths.
func PrettyFuncs(sess smu2600.Transport) (
	query func(string) string,
	cmd func(string),
) {
	query = func(q string) string {
		s, err := sess.Query(q)
		if err != nil {
			log.Printf("query %s: %s", CmdStyle.Render(q), FaultStyle.Render(err.Error()))
			return s
		}
		if len(s) == 0 {
			log.Print(ReplyStyle.Render("<no response>"))
			return s
		}
		log.Printf("%s: [%d] %s", CmdStyle.Render(q), len(s), ReplyStyle.Render(s))
		return s
	}

	cmd = func(c string) {
		if err := sess.Command(c); err != nil {
			log.Printf("cmd %s: %s", CmdStyle.Render(c), FaultStyle.Render(err.Error()))
		} else {
			log.Printf("%s()", CmdStyle.Render(c))
		}
	}
	return query, cmd
}
