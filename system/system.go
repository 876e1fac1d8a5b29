// Package system reports host resource usage for the status display.
package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats is a point-in-time host resource snapshot.
type Stats struct {
	CPUPercent    float64
	MemoryPercent float64
}

// Collect gathers current CPU and memory usage.
func Collect() (Stats, error) {
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		return Stats{}, err
	}
	if len(percentages) == 0 {
		return Stats{}, fmt.Errorf("could not get CPU usage")
	}
	virtualMem, err := mem.VirtualMemory()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		CPUPercent:    percentages[0],
		MemoryPercent: virtualMem.UsedPercent,
	}, nil
}
