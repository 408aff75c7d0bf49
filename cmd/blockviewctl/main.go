// Command blockviewctl is an interactive console for manually exercising
// the block view engine: creating views, setting overrides, and driving
// dig sessions one operator command at a time, mirroring dragonfly's
// server/console REPL built on the same prompt library.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/google/uuid"

	blockview "github.com/cammyparakeet/blockview"
	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
	"github.com/cammyparakeet/blockview/view"
)

const (
	promptPrefix      = "blockviewctl> "
	maxHistoryEntries = 128
)

func main() {
	log := slog.Default()
	eng := blockview.New(blockview.DefaultConfig(), host.NopWorldHost{}, host.NopPlayerHost{}, host.NopPacketSink{}, host.NopScheduler{}, consoleHardnessTable, consoleModifierChain())

	c := &console{eng: eng, log: log, views: make(map[uint64]*view.BlockView)}
	fmt.Println("blockviewctl — type 'help' for commands, 'exit' to quit")
	for {
		line := prompt.Input(promptPrefix, c.complete,
			prompt.OptionTitle("blockviewctl"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(promptPrefix),
			prompt.OptionCompletionOnDown(),
			prompt.OptionMaxSuggestion(12),
		)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.history = append(c.history, line)
		if len(c.history) > maxHistoryEntries {
			c.history = c.history[len(c.history)-maxHistoryEntries:]
		}
		if line == "exit" || line == "quit" {
			return
		}
		c.execute(line)
	}
}

// console holds the REPL's view of the engine's registered views, keyed
// by id for convenient command-line reference.
type console struct {
	eng     *blockview.Engine
	log     *slog.Logger
	history []string
	views   map[uint64]*view.BlockView
}

var commandNames = []string{
	"create-view", "set", "get", "break", "dig-start", "dig-complete",
	"dig-cancel", "center", "list-views", "status", "help", "exit",
}

func (c *console) complete(doc prompt.Document) []prompt.Suggest {
	word := doc.GetWordBeforeCursor()
	suggestions := make([]prompt.Suggest, 0, len(commandNames))
	for _, name := range commandNames {
		suggestions = append(suggestions, prompt.Suggest{Text: name})
	}
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].Text < suggestions[j].Text })
	return prompt.FilterHasPrefix(suggestions, word, true)
}

func (c *console) execute(line string) {
	fields := strings.Fields(line)
	cmdName, args := fields[0], fields[1:]

	var err error
	switch cmdName {
	case "help":
		c.printHelp()
	case "create-view":
		err = c.cmdCreateView(args)
	case "set":
		err = c.cmdSet(args)
	case "get":
		err = c.cmdGet(args)
	case "break":
		err = c.cmdBreak(args)
	case "dig-start":
		err = c.cmdDigStart(args)
	case "dig-complete":
		err = c.cmdDigComplete(args)
	case "dig-cancel":
		err = c.cmdDigCancel(args)
	case "center":
		err = c.cmdCenter(args)
	case "list-views":
		c.cmdListViews()
	case "status":
		c.cmdStatus()
	default:
		err = fmt.Errorf("unknown command %q (try 'help')", cmdName)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
}

func (c *console) printHelp() {
	fmt.Println(`commands:
  create-view <world> <x> <y> <z> <w> <h> <d>   create and register a transient view
  set <viewID> <x> <y> <z> <material>           write a vanilla override
  get <viewID> <x> <y> <z>                      read the override at a cell
  break <viewID> <x> <y> <z>                    break the override at a cell
  dig-start <viewID> <x> <y> <z> [tool]         start a dig session (full_break_ms is derived from hardness)
  dig-complete <viewID> <x> <y> <z>              complete the active dig session
  dig-cancel <viewID> <x> <y> <z>                cancel the active dig session
  center <viewID>                                print the bounding box's centroid
  list-views                                     list registered view ids
  status                                         print engine diagnostics
  exit                                           quit`)
}

func (c *console) cmdCreateView(args []string) error {
	if len(args) != 7 {
		return fmt.Errorf("usage: create-view <world> <x> <y> <z> <w> <h> <d>")
	}
	pos, err := parsePos(coord.WorldID(args[0]), args[1:4])
	if err != nil {
		return err
	}
	w, err1 := strconv.Atoi(args[4])
	h, err2 := strconv.Atoi(args[5])
	d, err3 := strconv.Atoi(args[6])
	if err1 != nil || err2 != nil || err3 != nil {
		return fmt.Errorf("dimensions must be integers")
	}
	v, err := c.eng.CreateView(pos.World, pos, coord.Dimensions{W: int32(w), H: int32(h), D: int32(d)}, view.Transient, view.DefaultOptions(), nil)
	if err != nil {
		return err
	}
	c.views[v.ViewID()] = v
	fmt.Printf("created view %d\n", v.ViewID())
	return nil
}

func (c *console) cmdSet(args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: set <viewID> <x> <y> <z> <material>")
	}
	v, pos, err := c.resolveViewAndPos(args[0], args[1:4])
	if err != nil {
		return err
	}
	return v.Set(pos, blockdata.Vanilla(args[4]), true)
}

func (c *console) cmdGet(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: get <viewID> <x> <y> <z>")
	}
	v, pos, err := c.resolveViewAndPos(args[0], args[1:4])
	if err != nil {
		return err
	}
	data, ok := v.Get(pos)
	if !ok {
		fmt.Println("unmanaged (no override)")
		return nil
	}
	fmt.Printf("%s\n", data.Serialize())
	return nil
}

func (c *console) cmdBreak(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: break <viewID> <x> <y> <z>")
	}
	v, pos, err := c.resolveViewAndPos(args[0], args[1:4])
	if err != nil {
		return err
	}
	return v.BreakBlock(consolePlayerID, pos, true, true, 0)
}

func (c *console) cmdDigStart(args []string) error {
	if len(args) != 4 && len(args) != 5 {
		return fmt.Errorf("usage: dig-start <viewID> <x> <y> <z> [tool]")
	}
	v, pos, err := c.resolveViewAndPos(args[0], args[1:4])
	if err != nil {
		return err
	}
	ctx := blockdata.BreakContext{Tool: toolKindFromArg(args, 4)}
	started, err := v.StartDig(consolePlayerID, pos, ctx)
	if err != nil {
		return err
	}
	fmt.Printf("started=%v\n", started)
	return nil
}

func (c *console) cmdDigComplete(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: dig-complete <viewID> <x> <y> <z>")
	}
	v, pos, err := c.resolveViewAndPos(args[0], args[1:4])
	if err != nil {
		return err
	}
	return v.CompleteDig(pos, consolePlayerID)
}

func (c *console) cmdDigCancel(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: dig-cancel <viewID> <x> <y> <z>")
	}
	v, pos, err := c.resolveViewAndPos(args[0], args[1:4])
	if err != nil {
		return err
	}
	return v.CancelDig(pos, consolePlayerID)
}

func (c *console) cmdCenter(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: center <viewID>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("viewID must be an integer")
	}
	v, ok := c.views[id]
	if !ok {
		return fmt.Errorf("no such view %d", id)
	}
	center := v.Center()
	fmt.Printf("center=%.2f,%.2f,%.2f\n", center.X(), center.Y(), center.Z())
	return nil
}

func (c *console) cmdListViews() {
	ids := make([]uint64, 0, len(c.views))
	for id := range c.views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Println(id)
	}
}

func (c *console) cmdStatus() {
	d := c.eng.Diagnostics()
	fmt.Printf("registry=%d views=%d chunks=%d players=%d pending=%d avg_flush_ms=%.2f\n",
		d.RegistryEntries, d.Manager.Views, d.Manager.ChunkIndexSize, d.Manager.TrackedPlayers,
		d.Dispatcher.PendingPackets, d.Dispatcher.AvgFlushMS)
}

func (c *console) resolveViewAndPos(idArg string, coords []string) (*view.BlockView, coord.BlockPosition, error) {
	id, err := strconv.ParseUint(idArg, 10, 64)
	if err != nil {
		return nil, coord.BlockPosition{}, fmt.Errorf("viewID must be an integer")
	}
	v, ok := c.views[id]
	if !ok {
		return nil, coord.BlockPosition{}, fmt.Errorf("no such view %d", id)
	}
	pos, err := parsePos(v.World(), coords)
	return v, pos, err
}

func parsePos(world coord.WorldID, coords []string) (coord.BlockPosition, error) {
	if len(coords) != 3 {
		return coord.BlockPosition{}, fmt.Errorf("expected x y z")
	}
	x, err1 := strconv.Atoi(coords[0])
	y, err2 := strconv.Atoi(coords[1])
	z, err3 := strconv.Atoi(coords[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return coord.BlockPosition{}, fmt.Errorf("coordinates must be integers")
	}
	return coord.BlockPosition{World: world, X: int32(x), Y: int32(y), Z: int32(z)}, nil
}

// consolePlayerID stands in for an operator-controlled player identity;
// the console has no real connected clients.
var consolePlayerID = host.PlayerID(uuid.New())

// consoleHardnessTable stands in for a host's real material table, giving
// StartDig's full_break computation (spec §4.5) something to resolve
// vanilla block hardness against. Unlisted materials default to 1.0.
var consoleHardnessTable = blockdata.HardnessTableFunc(func(m blockdata.Material) float64 {
	switch m {
	case "minecraft:dirt", "minecraft:sand", "minecraft:gravel":
		return 0.5
	case "minecraft:stone", "minecraft:cobblestone":
		return 1.5
	case "minecraft:obsidian":
		return 50
	default:
		return 1.0
	}
})

// consoleModifierChain registers one illustrative tool-speed modifier,
// following modifiers.go's note that the core ships no built-in chain of
// its own — hosts register whatever their own tool progression calls for.
func consoleModifierChain() *blockdata.ModifierChain {
	return blockdata.NewModifierChain(func(data blockdata.ViewBlockData, ctx blockdata.BreakContext, multiplier float64) float64 {
		if data.PreferredTool(ctx.Tool) {
			multiplier *= 4
		}
		return multiplier
	})
}

// toolKindFromArg parses an optional tool-kind argument for dig-start,
// defaulting to bare hands when omitted.
func toolKindFromArg(args []string, i int) blockdata.ToolKind {
	if i >= len(args) {
		return blockdata.ToolHand
	}
	return blockdata.ToolKind(args[i])
}
