package export

import (
	"net"
	"strconv"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// DeviceColumns is the column set of the devices table export.
func DeviceColumns() []Column[types.EnrichedDevice] {
	return []Column[types.EnrichedDevice]{
		Indexed("S.No", func(_ types.EnrichedDevice, i int) any { return i + 1 }),
		Field("Display Name", func(d types.EnrichedDevice) any { return d.Display }),
		Field("Hostname", func(d types.EnrichedDevice) any { return d.Hostname }),
		Field("IP", func(d types.EnrichedDevice) any {
			if d.IP == "" {
				return nil
			}
			return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
		}),
		Field("Type", func(d types.EnrichedDevice) any { return d.DeviceTypeName }),
		Field("Status", func(d types.EnrichedDevice) any { return d.StatusLabel() }),
		Field("Location", func(d types.EnrichedDevice) any { return d.LocationOrNA() }),
		Field("Worker", func(d types.EnrichedDevice) any { return d.WorkerOrNA() }),
		Field("Failures", func(d types.EnrichedDevice) any { return d.ConsecutiveFailures }),
	}
}

// WorkerColumns is the column set of the workers table export.
func WorkerColumns() []Column[types.Worker] {
	return []Column[types.Worker]{
		Indexed("S.No", func(_ types.Worker, i int) any { return i + 1 }),
		Field("Hostname", func(w types.Worker) any { return w.Hostname }),
		Field("IP", func(w types.Worker) any { return w.IPAddress }),
		Field("Version", func(w types.Worker) any { return w.Version }),
		Field("Status", func(w types.Worker) any { return string(w.Status) }),
		Field("Approval", func(w types.Worker) any { return string(w.ApprovalStatus) }),
		Field("Max Devices", func(w types.Worker) any { return w.MaxDevices }),
		Field("Last Seen", func(w types.Worker) any { return w.LastSeen }),
	}
}
