package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/l1jgo/slgmove/internal/world"
	"gopkg.in/yaml.v3"
)

// GroundDef describes one terrain type of a battlefield.
type GroundDef struct {
	Type int    `yaml:"type"`
	Cost int    `yaml:"cost"` // -1 = forbidden
	Name string `yaml:"name"`
}

// BattlefieldInfo holds metadata for a single battlefield, loaded from map_list.yaml.
type BattlefieldInfo struct {
	MapID   int16       `yaml:"map_id"`
	Name    string      `yaml:"name"`
	Grounds []GroundDef `yaml:"grounds"`
}

// battlefieldEntry stores the loaded tile rows and ground table for one map.
type battlefieldEntry struct {
	info    BattlefieldInfo
	types   [][]int // types[y][x]
	grounds map[int]*world.Ground
}

// BattlefieldTable provides battlefield lookups and terrain construction.
type BattlefieldTable struct {
	fields map[int16]*battlefieldEntry
}

type battlefieldListFile struct {
	Battlefields []BattlefieldInfo `yaml:"battlefields"`
}

// LoadBattlefields loads battlefield metadata from YAML and terrain rows from text files.
// yamlPath: path to map_list.yaml
// tileDir: directory containing {map_id}.txt tile files
func LoadBattlefields(yamlPath, tileDir string) (*BattlefieldTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file battlefieldListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &BattlefieldTable{
		fields: make(map[int16]*battlefieldEntry, len(file.Battlefields)),
	}
	for _, info := range file.Battlefields {
		if _, dup := table.fields[info.MapID]; dup {
			return nil, fmt.Errorf("map list: duplicate map_id %d", info.MapID)
		}
		grounds, err := buildGrounds(info)
		if err != nil {
			return nil, err
		}
		types, err := loadTileFile(tileDir, int(info.MapID))
		if err != nil {
			return nil, fmt.Errorf("map %d (%s): %w", info.MapID, info.Name, err)
		}
		// Building a throwaway map validates shape and ground coverage up front.
		if _, err := world.NewTerrainMap(types, grounds); err != nil {
			return nil, fmt.Errorf("map %d (%s): %w", info.MapID, info.Name, err)
		}
		table.fields[info.MapID] = &battlefieldEntry{
			info:    info,
			types:   types,
			grounds: grounds,
		}
	}
	return table, nil
}

func buildGrounds(info BattlefieldInfo) (map[int]*world.Ground, error) {
	grounds := make(map[int]*world.Ground, len(info.Grounds))
	for _, def := range info.Grounds {
		if _, dup := grounds[def.Type]; dup {
			return nil, fmt.Errorf("map %d: duplicate ground type %d", info.MapID, def.Type)
		}
		g, err := world.NewGround(def.Cost)
		if err != nil {
			return nil, fmt.Errorf("map %d ground %d (%s): %w", info.MapID, def.Type, def.Name, err)
		}
		grounds[def.Type] = g
	}
	return grounds, nil
}

// loadTileFile reads a CSV tile file: each line is a row (y) of comma-separated
// terrain types (x). Blank lines and lines starting with '#' are skipped.
func loadTileFile(dir string, mapID int) ([][]int, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tiles: %w", err)
	}
	defer f.Close()

	var rows [][]int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		toks := strings.Split(text, ",")
		row := make([]int, 0, len(toks))
		for _, tok := range toks {
			v, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad terrain type %q", path, line, tok)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return rows, nil
}

// Count returns the number of loaded battlefields.
func (t *BattlefieldTable) Count() int {
	return len(t.fields)
}

// Get returns metadata for a battlefield, or nil if not found.
func (t *BattlefieldTable) Get(mapID int16) *BattlefieldInfo {
	e := t.fields[mapID]
	if e == nil {
		return nil
	}
	return &e.info
}

// IDs returns all loaded map IDs in ascending order.
func (t *BattlefieldTable) IDs() []int16 {
	ids := make([]int16, 0, len(t.fields))
	for id := range t.fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewTerrain builds a fresh terrain map with no units for mapID.
func (t *BattlefieldTable) NewTerrain(mapID int16) (*world.TerrainMap, error) {
	e := t.fields[mapID]
	if e == nil {
		return nil, fmt.Errorf("battlefield %d not loaded: %w", mapID, world.ErrInvalidArgument)
	}
	return world.NewTerrainMap(e.types, e.grounds)
}
