// Package diag implements the observational "supervisor diag" subcommand:
// read-only host and child-process metrics. It has no enforcement power
// over the supervisor loop and never feeds back into restart decisions.
// Grounded on
// _examples/Nehonix-Team-XyPriss/tools/xypriss-sys-go/internal/sys/sys.go
// (GetSystemInfo/GetProcessInfo/GetBatteryInfo), trimmed to the fields an
// operator inspecting a stuck supervisor would actually want.
package diag

import (
	"fmt"
	"runtime"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostSnapshot summarizes the machine the supervisor is running on.
type HostSnapshot struct {
	Hostname     string
	OS           string
	KernelVer    string
	Architecture string
	CPUCount     int
	CPUModel     string
	TotalMemory  uint64
	UsedMemory   uint64
	Uptime       uint64
}

// ChildSnapshot summarizes the supervised child process, when one is
// currently alive.
type ChildSnapshot struct {
	PID       int32
	Alive     bool
	CPUPct    float64
	RSSBytes  uint64
	StartedAt time.Time
}

// BatterySnapshot reports host battery state where present; absent on
// most server hardware.
type BatterySnapshot struct {
	Present    bool
	State      string
	Percentage float64
}

// Host collects a point-in-time snapshot of the host machine.
func Host() (HostSnapshot, error) {
	hInfo, err := host.Info()
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("diag: host info: %w", err)
	}
	vMem, err := mem.VirtualMemory()
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("diag: memory info: %w", err)
	}
	cInfos, _ := cpu.Info()
	var model string
	if len(cInfos) > 0 {
		model = cInfos[0].ModelName
	}

	return HostSnapshot{
		Hostname:     hInfo.Hostname,
		OS:           hInfo.OS,
		KernelVer:    hInfo.KernelVersion,
		Architecture: runtime.GOARCH,
		CPUCount:     runtime.NumCPU(),
		CPUModel:     model,
		TotalMemory:  vMem.Total,
		UsedMemory:   vMem.Used,
		Uptime:       hInfo.Uptime,
	}, nil
}

// Child reports CPU and memory usage for the supervised child's PID. It
// returns Alive=false rather than an error when the process has already
// exited, since that is an expected, frequent condition for this
// observational subcommand.
func Child(pid int) (ChildSnapshot, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ChildSnapshot{PID: int32(pid), Alive: false}, nil
	}

	cpuPct, _ := p.CPUPercent()
	memInfo, _ := p.MemoryInfo()
	createdMs, _ := p.CreateTime()

	snap := ChildSnapshot{
		PID:    int32(pid),
		Alive:  true,
		CPUPct: cpuPct,
	}
	if memInfo != nil {
		snap.RSSBytes = memInfo.RSS
	}
	if createdMs > 0 {
		snap.StartedAt = time.UnixMilli(createdMs)
	}
	return snap, nil
}

// Battery reports host battery state. Absence of a battery is not an
// error: most of the hardware this supervisor runs on has none.
func Battery() BatterySnapshot {
	batteries, err := battery.GetAll()
	if err != nil || len(batteries) == 0 {
		return BatterySnapshot{Present: false}
	}
	b := batteries[0]
	pct := 0.0
	if b.Full > 0 {
		pct = (b.Current / b.Full) * 100
	}
	return BatterySnapshot{Present: true, State: b.State.String(), Percentage: pct}
}
