package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/courtside/internal/ports"
)

// Console implementa ports.Reporter.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Report imprime el resumen de la sesión: una línea compacta y, en modo
// tabla, el desglose de eventos y órdenes.
func (c *Console) Report(_ context.Context, r ports.SessionReport) error {
	c.printCompact(r)
	if c.table {
		c.printTables(r)
	}
	return nil
}

func (c *Console) printCompact(r ports.SessionReport) {
	orders := 0
	for _, n := range r.Actions {
		orders += n
	}
	fmt.Fprintf(c.out, "[%s] %s session=%s events=%d orders=%d rejected=%d fills=%d games=%d pos=%s cap$%.2f fair=%.2f\n",
		time.Now().Format("15:04:05"),
		r.Instrument,
		shortID(r.SessionID),
		total(r.Events),
		orders,
		r.Rejections,
		r.Fills,
		r.GamesCompleted,
		signed(r.Position),
		r.CapitalRemaining,
		r.LastFair,
	)
}

func (c *Console) printTables(r ports.SessionReport) {
	fmt.Fprintf(c.out, "\nEvents\n")
	events := tablewriter.NewWriter(c.out)
	events.Header("Type", "Count")
	for _, k := range sortedKeys(r.Events) {
		events.Append(k, strconv.Itoa(r.Events[k]))
	}
	events.Render()

	actions := make(map[string]int, len(r.Actions))
	for k, v := range r.Actions {
		actions[string(k)] = v
	}
	fmt.Fprintf(c.out, "\nOrders\n")
	orders := tablewriter.NewWriter(c.out)
	orders.Header("Kind", "Count")
	for _, k := range sortedKeys(actions) {
		orders.Append(k, strconv.Itoa(actions[k]))
	}
	orders.Append("REJECTED", strconv.Itoa(r.Rejections))
	orders.Render()

	fmt.Fprintf(c.out, "\nPosition %s | Capital $%.2f | Fills %d | Games %d\n",
		signed(r.Position), r.CapitalRemaining, r.Fills, r.GamesCompleted)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func signed(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
