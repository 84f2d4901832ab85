package fo

import (
	"fmt"

	"fo-go/internal/database/sqlc"
)

// DuplicateGroup is a set of catalog records sharing one content fingerprint.
// Files are ordered by discovery time; the first is the original.
type DuplicateGroup struct {
	ContentHash string
	Files       []*sqlc.File
	Original    *sqlc.File
	Duplicates  []*sqlc.File
}

// WastedBytes is the space the duplicate members occupy.
func (g *DuplicateGroup) WastedBytes() int64 {
	var n int64
	for _, f := range g.Duplicates {
		n += f.Size
	}
	return n
}

// MarkResult summarizes a MarkDuplicates pass.
type MarkResult struct {
	BatchID string `json:"batch_id"`
	Groups  int    `json:"groups"`
	Marked  int    `json:"marked"`
}

// DuplicateStats is a derived read over all duplicate groups.
type DuplicateStats struct {
	Groups         int   `json:"groups"`
	DuplicateFiles int   `json:"duplicate_files"`
	WastedBytes    int64 `json:"wasted_bytes"`
}

// Match confidence levels returned by FindMatchesFor.
const (
	MatchExact     = "exact"
	MatchHeuristic = "heuristic"
)

// MatchResult holds the records that appear to share content with a file.
// Confidence is empty when nothing matched.
type MatchResult struct {
	Confidence string
	Files      []*sqlc.File
}

// FindDuplicateGroups returns every fingerprint shared by two or more
// non-error records, with the earliest discovered record as the original.
func (s *FOService) FindDuplicateGroups() ([]*DuplicateGroup, error) {
	hashes, err := s.catalog.FindDuplicateContentHashes()
	if err != nil {
		return nil, fmt.Errorf("finding duplicate fingerprints: %w", err)
	}

	groups := make([]*DuplicateGroup, 0, len(hashes))
	for _, h := range hashes {
		files, err := s.catalog.FindFilesByContentHash(h)
		if err != nil {
			return nil, fmt.Errorf("loading group %s: %w", h, err)
		}
		if len(files) < 2 {
			continue
		}
		groups = append(groups, &DuplicateGroup{
			ContentHash: h,
			Files:       files,
			Original:    files[0],
			Duplicates:  files[1:],
		})
	}
	return groups, nil
}

// MarkDuplicates links every pending duplicate member to its group's
// original. Members that are already moved, duplicate or otherwise
// dispositioned are left alone, so repeated calls change nothing.
func (s *FOService) MarkDuplicates() (*MarkResult, error) {
	groups, err := s.FindDuplicateGroups()
	if err != nil {
		return nil, err
	}

	result := &MarkResult{BatchID: s.idgen.New(), Groups: len(groups)}
	for _, g := range groups {
		for _, dup := range g.Duplicates {
			if dup.Status != StatusPending || dup.ID == g.Original.ID {
				continue
			}
			if err := s.catalog.MarkFileDuplicate(dup.ID, g.Original.ID, s.now()); err != nil {
				return result, fmt.Errorf("marking file %d duplicate: %w", dup.ID, err)
			}
			if _, err := s.appendOperation(&sqlc.Operation{
				BatchID:         result.BatchID,
				FileID:          nullInt64(dup.ID),
				Kind:            OpDuplicate,
				SourcePath:      currentPath(dup),
				DestinationPath: nullString(currentPath(g.Original)),
				ContentHash:     dup.ContentHash,
				Reason:          fmt.Sprintf("duplicate of #%d", g.Original.ID),
				Status:          OpStatusCompleted,
			}); err != nil {
				return result, err
			}
			s.logger.Debug("file marked duplicate", "id", dup.ID, "original", g.Original.ID)
			result.Marked++
		}
	}

	s.logger.Info("duplicates marked", "groups", result.Groups, "marked", result.Marked)
	return result, nil
}

// DuplicateStats reports how many duplicates exist and how much space they
// take up. It has no side effects.
func (s *FOService) DuplicateStats() (*DuplicateStats, error) {
	groups, err := s.FindDuplicateGroups()
	if err != nil {
		return nil, err
	}
	stats := &DuplicateStats{Groups: len(groups)}
	for _, g := range groups {
		stats.DuplicateFiles += len(g.Duplicates)
		stats.WastedBytes += g.WastedBytes()
	}
	return stats, nil
}

// FindMatchesFor looks up records that share content with file. An exact
// fingerprint match wins; only when there is none, or the file has no full
// fingerprint yet, are size and prefix fingerprint compared.
func (s *FOService) FindMatchesFor(file *sqlc.File) (*MatchResult, error) {
	if file.ContentHash.Valid {
		files, err := s.catalog.FindFilesByContentHash(file.ContentHash.String)
		if err != nil {
			return nil, fmt.Errorf("finding exact matches: %w", err)
		}
		if others := excludeFile(files, file.ID); len(others) > 0 {
			return &MatchResult{Confidence: MatchExact, Files: others}, nil
		}
	}

	if file.PrefixHash.Valid {
		files, err := s.catalog.FindFilesBySizeAndPrefixHash(file.Size, file.PrefixHash.String)
		if err != nil {
			return nil, fmt.Errorf("finding heuristic matches: %w", err)
		}
		if others := excludeFile(files, file.ID); len(others) > 0 {
			return &MatchResult{Confidence: MatchHeuristic, Files: others}, nil
		}
	}

	return &MatchResult{}, nil
}

// ExistingDuplicateAtDestination returns a moved record carrying hash, other
// than excludeID, or nil.
func (s *FOService) ExistingDuplicateAtDestination(hash string, excludeID int64) (*sqlc.File, error) {
	f, err := s.catalog.FindMovedFileByContentHash(hash, excludeID)
	if err != nil {
		return nil, fmt.Errorf("finding moved duplicate: %w", err)
	}
	return f, nil
}

func excludeFile(files []*sqlc.File, id int64) []*sqlc.File {
	out := make([]*sqlc.File, 0, len(files))
	for _, f := range files {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return out
}
