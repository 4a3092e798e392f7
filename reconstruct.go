package mftindex

// maxReconstructDepth bounds the upward walk through parent links, to
// defeat cycles caused by corrupted or racing data. It is not an error
// condition: reaching it simply stops the walk.
const maxReconstructDepth = 50

// ReconstructPath walks f upward via ParentFRN, prepending each entry's
// name, and composes driveLetter + the accumulated parts. It stops when a
// parent is a self-loop, zero, or (after masking only the parent, not the
// FRN being ascended from) the NTFS root record index 5, or after
// maxReconstructDepth hops, whichever comes first.
//
// If a link breaks (a parent is missing from the store) and the FRN the
// walk is currently on is not itself the root sentinel, the path is
// unrooted and ReconstructPath returns ("", false).
func ReconstructPath(store *EntryStore, driveLetter string, f FRN) (string, bool) {
	var parts []string
	current := f

	for i := 0; i < maxReconstructDepth; i++ {
		entry, ok := store.Get(current)
		if !ok {
			if current.IsRootSentinel() {
				break
			}
			return "", false
		}

		parts = append(parts, entry.Name)
		parent := entry.ParentFRN

		if parent == current || parent == 0 {
			break
		}
		// Only the parent being tested is masked to its record index here;
		// `current` is not re-masked on the next iteration. Deliberate:
		// a long ascending chain stops exactly where the immediate parent
		// resolves to the root record index, regardless of its reuse
		// sequence, but a current FRN that happens to share the root's
		// record index with a stale sequence is not special-cased.
		if parent.IsRootSentinel() {
			break
		}

		current = parent
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return joinDrivePath(driveLetter, parts), true
}

func joinDrivePath(driveLetter string, parts []string) string {
	path := driveLetter
	if path == "" {
		path = `C:`
	}
	for len(path) > 0 && path[len(path)-1] == '\\' {
		path = path[:len(path)-1]
	}
	for _, p := range parts {
		path += `\` + p
	}
	if len(parts) == 0 {
		path += `\`
	}
	return path
}
