package generator

import (
	"bytes"
	"encoding/binary"
	"net"
)

// IDbyIP maps an IPv4 address to a stable numeric id, used to derive
// per-instance snowflake node ids in clustered deployments.
func IDbyIP(ip string) uint32 {
	var id uint32
	_ = binary.Read(bytes.NewBuffer(net.ParseIP(ip).To4()), binary.BigEndian, &id)
	return id
}

// NodeID folds an IP-derived id into the snowflake node range (0..1023).
func NodeID(ip string) int64 {
	return int64(IDbyIP(ip) % 1024)
}
