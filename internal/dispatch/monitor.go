package dispatch

import (
	"fmt"
	"strings"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/procview"
)

// runMonitorCommand answers one `monitor`/qRcmd command's decoded text
// against view, mirroring qRcmd's ParsePrefix chain ("help", "get
// base"/"get info"/"get modules", "get mappings", "get mapping
// {address}"). The original's program-id/application/hbl/region-layout
// fields come from Horizon-specific process metadata this daemon's
// ProcessManager doesn't model; the process id and module table it does
// track are reported instead.
func runMonitorCommand(view *procview.ProcessView, command string) string {
	switch {
	case strings.HasPrefix(command, "help"):
		return "get info\n" +
			"get mappings\n" +
			"get mappings {address}\n" +
			"get mapping {address}\n"

	case strings.HasPrefix(command, "get base"), strings.HasPrefix(command, "get info"), strings.HasPrefix(command, "get modules"):
		if !view.Attached() {
			return "Not attached.\n"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Process:  0x%x\n", view.ProcessID())
		b.WriteString("Modules:\n")
		for _, m := range view.Modules() {
			name := m.Name
			if len(name) < 5 || (!strings.HasSuffix(name, ".elf") && !strings.HasSuffix(name, ".nss")) {
				name += ".elf"
			}
			fmt.Fprintf(&b, "  0x%010x - 0x%010x %s\n", m.Base, m.Base+m.Size-1, name)
		}
		return b.String()

	case strings.HasPrefix(command, "get mapping "):
		if !view.Attached() {
			return "Not attached.\n"
		}
		rest := strings.TrimPrefix(command, "get mapping ")
		rest = strings.TrimPrefix(rest, "0x")
		address := decodeHex(rest)

		regions, err := view.MemoryMap()
		if err != nil {
			return fmt.Sprintf("0x%016x: No mapping.\n", address)
		}
		for _, r := range regions {
			if address >= r.Address && address < r.Address+r.Size {
				return fmt.Sprintf("0x%010x - 0x%010x %s %s\n", r.Address, r.Address+r.Size-1, r.Permission, r.State)
			}
		}
		return fmt.Sprintf("0x%016x: No mapping.\n", address)

	case strings.HasPrefix(command, "get mappings"):
		if !view.Attached() {
			return "Not attached.\n"
		}
		rest := strings.TrimSpace(strings.TrimPrefix(command, "get mappings"))
		start := decodeHex(strings.TrimPrefix(rest, "0x"))

		var b strings.Builder
		b.WriteString("Mappings:\n")
		regions, err := view.MemoryMap()
		if err != nil {
			return b.String()
		}
		for _, r := range regions {
			if r.Address+r.Size <= start {
				continue
			}
			fmt.Fprintf(&b, "  0x%010x - 0x%010x %s %s\n", r.Address, r.Address+r.Size-1, r.Permission, r.State)
		}
		return b.String()

	default:
		return fmt.Sprintf("Unknown command `%s`\n", command)
	}
}
