package main

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// systemRAMBytes reads total physical memory from /proc/meminfo. The
// embedding service's 8b-tier Ollama selection needs this fact and Go
// has no portable stdlib accessor for it; on non-Linux or on failure it
// degrades to 0, which only disables the largest tier (RAM
// gate defaults closed).
func systemRAMBytes() uint64 {
	if runtime.GOOS != "linux" {
		return 0
	}
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}
