package models

// TargetInfo is one managed entity from the inventory collaborator. Used by
// the routing gate to answer count/list questions without alert analysis.
type TargetInfo struct {
	Name   string
	Type   string
	Status string
}
