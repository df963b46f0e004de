package registry

// Merge reconciles the on-disk record set with an in-memory one and
// returns the union. Disk-only records survive (another process added
// them); memory-only records are added. When both sides carry the same
// id, the side with the strictly newer merge stamp wins; on ties disk
// wins, so a record is only overwritten by a genuinely fresher copy.
//
// Merge is pure: neither input map is mutated.
func Merge(disk, memory map[string]AgentRecord) map[string]AgentRecord {
	out := make(map[string]AgentRecord, len(disk)+len(memory))
	for id, rec := range disk {
		out[id] = rec
	}
	for id, mem := range memory {
		onDisk, ok := out[id]
		if !ok {
			out[id] = mem
			continue
		}
		if mergeStamp(mem).After(mergeStamp(onDisk)) {
			out[id] = mem
		}
	}
	return out
}
