package xfer

import (
	"fmt"
	"strings"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// ProcessesDocument builds the qXfer:osdata:read:processes: document,
// mirroring qXferOsdataRead's <osdata type="processes"> listing.
func ProcessesDocument(processes []interfaces.ProcessInfo) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<!DOCTYPE target SYSTEM \"osdata.dtd\">\n<osdata type=\"processes\">\n")
	for _, p := range processes {
		fmt.Fprintf(&b, "<item>\n<column name=\"pid\">%d</column>\n<column name=\"command\">%s</column>\n</item>\n", p.ProcessID, p.Name)
	}
	b.WriteString("</osdata>")
	return b.String()
}

// ThreadsDocument builds the qXfer:threads:read:: document for the
// attached process, mirroring qXferThreadsRead's <threads> listing. The
// name attribute isn't included: DebugTarget doesn't expose per-thread
// names, only the thread-id table.
func ThreadsDocument(processID uint64, threadIDs []uint64, target interfaces.DebugTarget) string {
	var b strings.Builder
	b.WriteString("<threads>")
	for _, tid := range threadIDs {
		if target != nil {
			fmt.Fprintf(&b, "<thread id=\"p%x.%x\" core=\"%d\"></thread>", processID, tid, target.CurrentCore(tid))
			continue
		}
		fmt.Fprintf(&b, "<thread id=\"p%x.%x\"></thread>", processID, tid)
	}
	b.WriteString("</threads>")
	return b.String()
}

// LibrariesDocument builds the qXfer:libraries:read:: document,
// mirroring qXferLibrariesRead's <library-list> listing: a module whose
// name doesn't already end ".elf"/".nss" gets ".elf" appended, matching
// the original's heuristic for homebrew NROs loaded without an
// extension.
func LibrariesDocument(modules []interfaces.ModuleInfo) string {
	var b strings.Builder
	b.WriteString("<library-list>")
	for _, m := range modules {
		name := m.Name
		if len(name) < 5 || (!strings.HasSuffix(name, ".elf") && !strings.HasSuffix(name, ".nss")) {
			name += ".elf"
		}
		fmt.Fprintf(&b, "<library name=\"%s\"><segment address=\"0x%x\" /></library>", name, m.Base)
	}
	b.WriteString("</library-list>")
	return b.String()
}
