package archive

import "github.com/coursetools/canvasdl/internal/canvas"

// SelectVersions decides which versions of a submission to archive.
//
// With includeAll, every version that has at least one attachment is
// returned in ascending attempt order. Otherwise at most one version is
// returned: the highest attempt that has attachments. The attachment
// filter runs before latest-selection so that an empty final attempt
// never shadows an earlier attempt with a real file.
func SelectVersions(sub canvas.Submission, includeAll bool) []canvas.Version {
	if includeAll {
		var out []canvas.Version
		for _, v := range sub.Versions {
			if len(v.Attachments) > 0 {
				out = append(out, v)
			}
		}
		return out
	}

	for i := len(sub.Versions) - 1; i >= 0; i-- {
		if len(sub.Versions[i].Attachments) > 0 {
			return []canvas.Version{sub.Versions[i]}
		}
	}
	return nil
}
