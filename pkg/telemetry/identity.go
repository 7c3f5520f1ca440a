package telemetry

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// DeviceID identifies this host in reports and client ids. Falls back to
// a fixed name when the machine id is unavailable (e.g. containers).
func DeviceID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "echoback"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
