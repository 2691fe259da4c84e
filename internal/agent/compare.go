package agent

// Age is the outcome of comparing local file state against the remote
// snapshot: a tagged three-valued comparison over mtime, with the digest
// breaking (or failing to break) an mtime tie.
type Age int

const (
	// AgeOlder means the local file is older; the reconciler fetches.
	AgeOlder Age = iota
	// AgeSame means mtimes and digests match; the file has converged.
	AgeSame
	// AgeNewer means the local file is newer; the reconciler pushes.
	AgeNewer
	// AgeAmbiguous means equal mtimes but differing digests. This is a
	// detected anomaly, reported and never auto-resolved.
	AgeAmbiguous
)

func (a Age) String() string {
	switch a {
	case AgeOlder:
		return "older"
	case AgeSame:
		return "same age"
	case AgeNewer:
		return "newer"
	default:
		return "ambiguous"
	}
}

// CompareAge compares local state against remote state. mtime ordering
// decides fetch/push; digests only matter at equal mtime.
func CompareAge(localMtime int64, localDigest string, remoteMtime int64, remoteDigest string) Age {
	switch {
	case localMtime < remoteMtime:
		return AgeOlder
	case localMtime > remoteMtime:
		return AgeNewer
	case localDigest == remoteDigest:
		return AgeSame
	default:
		return AgeAmbiguous
	}
}
