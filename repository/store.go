package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiobook-worker/constant"
	"audiobook-worker/entities"
)

var ErrUnknownWork = errors.New("unknown work id")

const (
	metadataFile       = "metadata.json"
	originalDir        = "novels_original"
	characterDir       = "character_analysis"
	processedDir       = "novels_processed"
	matchedDir         = "novels_matched"
	audioRootDir       = "audio_output"
	generationInfoFile = "audiobook_info.json"
)

// ArtifactStore is keyed persistence for uploaded text, derived JSON artifacts
// and generated audio, joined through a single metadata index file.
type ArtifactStore interface {
	PutOriginal(originalName, text string) (string, error)
	TextPath(workID string) (string, bool)
	Metadata(workID string) (*entities.WorkRecord, bool)
	AllMetadata() (map[string]entities.WorkRecord, error)
	PutDerived(workID string, kind constant.ArtifactKind, payload any) (string, error)
	DerivedExists(workID string, kind constant.ArtifactKind) bool
	LoadCharacters(workID string) ([]entities.Character, error)
	LoadStructure(workID string) ([]entities.StructuralSegment, error)
	LoadMatching(workID string) (*entities.MatchingArtifact, error)
	DeleteWork(workID string) error
	AudioDir(workID string) string
	WriteGenerationInfo(workID string, info entities.GenerationInfo) error
	ReadGenerationInfo(workID string) (*entities.GenerationInfo, error)
	SaveAudioSegment(workID string, order int, data []byte) (string, error)
	ListAudioFiles(workID string) ([]string, error)
	AudioSegmentPath(workID string, order int) (string, bool)
}

type store struct {
	root string
	// The metadata index is a whole-file read-modify-write; the mutex keeps a
	// single writer at a time within this process.
	mu sync.Mutex
}

func NewStore(root string) (ArtifactStore, error) {
	s := &store{root: root}
	for _, dir := range []string{root, s.dir(originalDir), s.dir(characterDir), s.dir(processedDir), s.dir(matchedDir), s.dir(audioRootDir)} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.metadataPath()); errors.Is(err, os.ErrNotExist) {
		if err := s.saveIndex(map[string]entities.WorkRecord{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *store) dir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *store) metadataPath() string {
	return filepath.Join(s.root, metadataFile)
}

func (s *store) loadIndex() (map[string]entities.WorkRecord, error) {
	data, err := os.ReadFile(s.metadataPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]entities.WorkRecord{}, nil
		}
		return nil, err
	}
	index := map[string]entities.WorkRecord{}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("corrupt metadata index: %w", err)
	}
	return index, nil
}

func (s *store) saveIndex(index map[string]entities.WorkRecord) error {
	data, err := json.MarshalIndent(index, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.metadataPath(), data, 0644)
}

// PutOriginal allocates a work id, writes the text and appends the metadata
// record. If the metadata write fails the text file is removed so no orphan
// survives the call.
func (s *store) PutOriginal(originalName, text string) (string, error) {
	workID := uuid.NewString()
	savedFilename := workID + ".txt"
	textPath := filepath.Join(s.dir(originalDir), savedFilename)

	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err == nil {
		index[workID] = entities.WorkRecord{
			OriginalFilename: originalName,
			SavedFilename:    savedFilename,
			UploadTimestamp:  time.Now().Format(time.RFC3339),
			SizeBytes:        int64(len(text)),
			CharCount:        len([]rune(text)),
		}
		err = s.saveIndex(index)
	}
	if err != nil {
		if removeErr := os.Remove(textPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			err = errors.Join(err, removeErr)
		}
		return "", err
	}

	return workID, nil
}

func (s *store) TextPath(workID string) (string, bool) {
	record, ok := s.Metadata(workID)
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir(originalDir), record.SavedFilename), true
}

func (s *store) Metadata(workID string) (*entities.WorkRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, err := s.loadIndex()
	if err != nil {
		return nil, false
	}
	record, ok := index[workID]
	if !ok {
		return nil, false
	}
	return &record, true
}

func (s *store) AllMetadata() (map[string]entities.WorkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndex()
}

func (s *store) derivedPath(workID string, kind constant.ArtifactKind) string {
	switch kind {
	case constant.ArtifactCharacters:
		return filepath.Join(s.dir(characterDir), workID+"_characters.json")
	case constant.ArtifactStructure:
		return filepath.Join(s.dir(processedDir), workID+"_structure.json")
	case constant.ArtifactMatching:
		return filepath.Join(s.dir(matchedDir), workID+"_matching.json")
	}
	return ""
}

// PutDerived serializes payload as the stage's canonical JSON shape to a
// deterministic filename and updates the metadata record's reference and
// timestamp fields for the kind.
func (s *store) PutDerived(workID string, kind constant.ArtifactKind, payload any) (string, error) {
	path := s.derivedPath(workID, kind)
	if path == "" {
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return "", err
	}
	record, ok := index[workID]
	if !ok {
		return "", ErrUnknownWork
	}

	indent := "    "
	if kind == constant.ArtifactMatching {
		indent = "  "
	}
	data, err := json.MarshalIndent(payload, "", indent)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	filename := filepath.Base(path)
	now := time.Now().Format(time.RFC3339)
	switch kind {
	case constant.ArtifactCharacters:
		record.CharacterAnalysisFile = filename
		record.CharacterAnalysisTimestamp = now
	case constant.ArtifactStructure:
		record.StructureAnalysisFile = filename
		record.StructureAnalysisTimestamp = now
	case constant.ArtifactMatching:
		record.MatchingFile = filename
		record.MatchingTimestamp = now
	}
	index[workID] = record
	if err := s.saveIndex(index); err != nil {
		return "", err
	}

	return filename, nil
}

func (s *store) DerivedExists(workID string, kind constant.ArtifactKind) bool {
	path := s.derivedPath(workID, kind)
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (s *store) loadDerived(workID string, kind constant.ArtifactKind, out any) error {
	data, err := os.ReadFile(s.derivedPath(workID, kind))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *store) LoadCharacters(workID string) ([]entities.Character, error) {
	var characters []entities.Character
	if err := s.loadDerived(workID, constant.ArtifactCharacters, &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

func (s *store) LoadStructure(workID string) ([]entities.StructuralSegment, error) {
	var segments []entities.StructuralSegment
	if err := s.loadDerived(workID, constant.ArtifactStructure, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func (s *store) LoadMatching(workID string) (*entities.MatchingArtifact, error) {
	var artifact entities.MatchingArtifact
	if err := s.loadDerived(workID, constant.ArtifactMatching, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// DeleteWork removes every artifact of the work and its metadata entry. Each
// removal is best-effort; only a missing metadata entry fails the call.
func (s *store) DeleteWork(workID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	record, ok := index[workID]
	if !ok {
		return ErrUnknownWork
	}

	if record.SavedFilename != "" {
		_ = os.Remove(filepath.Join(s.dir(originalDir), record.SavedFilename))
	}
	for _, kind := range []constant.ArtifactKind{constant.ArtifactCharacters, constant.ArtifactStructure, constant.ArtifactMatching} {
		_ = os.Remove(s.derivedPath(workID, kind))
	}
	_ = os.RemoveAll(s.AudioDir(workID))

	delete(index, workID)
	return s.saveIndex(index)
}

func (s *store) AudioDir(workID string) string {
	return filepath.Join(s.dir(audioRootDir), workID)
}

func (s *store) WriteGenerationInfo(workID string, info entities.GenerationInfo) error {
	dir := s.AudioDir(workID)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, generationInfoFile), data, 0644)
}

func (s *store) ReadGenerationInfo(workID string) (*entities.GenerationInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.AudioDir(workID), generationInfoFile))
	if err != nil {
		return nil, err
	}
	var info entities.GenerationInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *store) SaveAudioSegment(workID string, order int, data []byte) (string, error) {
	dir := s.AudioDir(workID)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%03d%s", order, constant.AudioFileExt))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ListAudioFiles returns the generated segment filenames sorted by their
// numeric stem.
func (s *store) ListAudioFiles(workID string) ([]string, error) {
	entries, err := os.ReadDir(s.AudioDir(workID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constant.AudioFileExt) {
			continue
		}
		files = append(files, entry.Name())
	}
	sortByNumericStem(files)
	return files, nil
}

func sortByNumericStem(files []string) {
	numeric := func(name string) int {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		n, err := strconv.Atoi(stem)
		if err != nil {
			return -1
		}
		return n
	}
	sort.Slice(files, func(i, j int) bool { return numeric(files[i]) < numeric(files[j]) })
}

func (s *store) AudioSegmentPath(workID string, order int) (string, bool) {
	path := filepath.Join(s.AudioDir(workID), fmt.Sprintf("%03d%s", order, constant.AudioFileExt))
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
