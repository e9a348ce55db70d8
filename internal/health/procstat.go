package health

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// userHZ is the kernel tick rate /proc/self/stat counts in. Fixed at 100 on
// every mainstream Linux build.
const userHZ = 100

// cpuTracker derives CPU percent from deltas between /proc/self/stat reads.
// On platforms without procfs every read fails and sample reports zeros.
type cpuTracker struct {
	lastTicks  uint64
	lastSample time.Time
}

// sample returns (cpuPercent, memMB) for this process. The first call
// establishes the baseline and reports 0 CPU.
func (c *cpuTracker) sample() (float64, float64) {
	memMB := readRSSMB()

	ticks, ok := readCPUTicks()
	if !ok {
		return 0, memMB
	}

	now := time.Now()
	defer func() {
		c.lastTicks = ticks
		c.lastSample = now
	}()

	if c.lastSample.IsZero() || ticks < c.lastTicks {
		return 0, memMB
	}
	elapsed := now.Sub(c.lastSample).Seconds()
	if elapsed <= 0 {
		return 0, memMB
	}

	cpuSeconds := float64(ticks-c.lastTicks) / userHZ
	return cpuSeconds / elapsed * 100, memMB
}

// readCPUTicks returns utime+stime from /proc/self/stat.
func readCPUTicks() (uint64, bool) {
	data, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, false
	}
	// comm (field 2) may contain spaces; everything after the closing paren
	// is space-separated, with utime and stime at positions 14 and 15 of the
	// full line.
	raw := string(data)
	end := strings.LastIndexByte(raw, ')')
	if end < 0 {
		return 0, false
	}
	fields := strings.Fields(raw[end+1:])
	// fields[0] is field 3 (state), so utime/stime are fields[11]/fields[12].
	if len(fields) < 13 {
		return 0, false
	}
	utime, err1 := strconv.ParseUint(fields[11], 10, 64)
	stime, err2 := strconv.ParseUint(fields[12], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return utime + stime, true
}

// readRSSMB returns resident set size in MB from /proc/self/status, or 0.
func readRSSMB() float64 {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}
