package storage

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/gaitworks/gaitkit/internal/model"
)

// Leaf-file schema. The grp column is the HDF-style group prefix ("" at the
// file root); category and event tables together form one trial group.
const (
	createCategoriesSQL = `
		CREATE TABLE IF NOT EXISTS category_data (
			grp         TEXT NOT NULL,
			category    TEXT NOT NULL,
			rate        REAL NOT NULL,
			start_frame INTEGER NOT NULL,
			end_frame   INTEGER NOT NULL,
			cycle_id    INTEGER NOT NULL,
			context     TEXT NOT NULL,
			channels    TEXT NOT NULL,
			axes        TEXT NOT NULL,
			units       TEXT NOT NULL,
			times       BLOB NOT NULL,
			samples     BLOB NOT NULL,
			PRIMARY KEY (grp, category)
		)`

	createEventsSQL = `
		CREATE TABLE IF NOT EXISTS event_rows (
			grp     TEXT NOT NULL,
			seq     INTEGER NOT NULL,
			time    REAL NOT NULL,
			label   TEXT NOT NULL,
			context TEXT NOT NULL,
			icon_id INTEGER NOT NULL,
			PRIMARY KEY (grp, seq)
		)`

	createEventMetaSQL = `
		CREATE TABLE IF NOT EXISTS event_meta (
			grp      TEXT NOT NULL PRIMARY KEY,
			end_time REAL NOT NULL,
			context  TEXT NOT NULL,
			cycle_id INTEGER NOT NULL
		)`
)

// openFile opens a leaf file and makes sure the schema exists.
func openFile(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trial file %s: %w", path, err)
	}
	for _, stmt := range []string{createCategoriesSQL, createEventsSQL, createEventMetaSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare trial file %s: %w", path, err)
		}
	}
	return db, nil
}

// groupWrite is one trial group destined for a leaf file.
type groupWrite struct {
	grp   string
	trial *model.Trial
}

// writeFile writes all groups of one leaf file inside a single transaction.
func writeFile(path string, groups []groupWrite) error {
	db, err := openFile(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction on %s: %w", path, err)
	}
	for _, g := range groups {
		if err := writeTrialGroup(tx, g.grp, g.trial); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to write group %q of %s: %w", g.grp, path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

// writeTrialGroup inserts one trial under a group prefix.
func writeTrialGroup(tx *sql.Tx, grp string, trial *model.Trial) error {
	for _, category := range trial.Categories() {
		arr, _ := trial.Data(category)
		channels, err := json.Marshal(arr.Channels)
		if err != nil {
			return err
		}
		axes, err := json.Marshal(arr.Axes)
		if err != nil {
			return err
		}
		units, err := json.Marshal(arr.Units)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO category_data
				(grp, category, rate, start_frame, end_frame, cycle_id, context,
				 channels, axes, units, times, samples)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			grp, string(category), arr.Meta.Rate, arr.Meta.StartFrame, arr.Meta.EndFrame,
			arr.Meta.CycleID, arr.Meta.Context,
			string(channels), string(axes), string(units),
			encodeFloats(arr.Times), encodeSamples(arr))
		if err != nil {
			return err
		}
	}

	if events := trial.Events(); events != nil {
		for seq, e := range events.Events {
			if _, err := tx.Exec(`
				INSERT INTO event_rows (grp, seq, time, label, context, icon_id)
				VALUES (?, ?, ?, ?, ?, ?)`,
				grp, seq, e.Time, e.Label, e.Context, e.IconID); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`
			INSERT INTO event_meta (grp, end_time, context, cycle_id)
			VALUES (?, ?, ?, ?)`,
			grp, events.Meta.EndTime, events.Meta.Context, events.Meta.CycleID); err != nil {
			return err
		}
	}
	return nil
}

// readGroupKeys returns the distinct group prefixes present in a leaf file.
func readGroupKeys(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT grp FROM category_data
		UNION
		SELECT grp FROM event_meta
		ORDER BY grp`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var grp string
		if err := rows.Scan(&grp); err != nil {
			return nil, err
		}
		keys = append(keys, grp)
	}
	return keys, rows.Err()
}

// readTrialGroup reconstructs the trial stored under one group prefix. A
// group with neither a known category nor events is a format error.
func readTrialGroup(db *sql.DB, grp string) (*model.Trial, error) {
	trial := model.NewTrial()
	found := false

	for _, category := range model.AllCategories() {
		arr, ok, err := readCategory(db, grp, category)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := trial.AddData(category, arr); err != nil {
			return nil, err
		}
		found = true
	}

	events, ok, err := readEvents(db, grp)
	if err != nil {
		return nil, err
	}
	if ok {
		trial.SetEvents(events)
		found = true
	}

	if !found {
		return nil, ErrFormat
	}
	return trial, nil
}

func readCategory(db *sql.DB, grp string, category model.DataCategory) (*model.CategoryArray, bool, error) {
	var (
		rate                              float64
		startFrame, endFrame              int
		cycleID                           int
		context                           string
		channelsJSON, axesJSON, unitsJSON string
		timesBlob, samplesBlob            []byte
	)
	err := db.QueryRow(`
		SELECT rate, start_frame, end_frame, cycle_id, context, channels, axes, units, times, samples
		FROM category_data WHERE grp = ? AND category = ?`,
		grp, string(category)).Scan(
		&rate, &startFrame, &endFrame, &cycleID, &context,
		&channelsJSON, &axesJSON, &unitsJSON, &timesBlob, &samplesBlob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var channels, axes, units []string
	if err := json.Unmarshal([]byte(channelsJSON), &channels); err != nil {
		return nil, false, fmt.Errorf("%w: bad channel list: %v", ErrFormat, err)
	}
	if err := json.Unmarshal([]byte(axesJSON), &axes); err != nil {
		return nil, false, fmt.Errorf("%w: bad axis list: %v", ErrFormat, err)
	}
	if err := json.Unmarshal([]byte(unitsJSON), &units); err != nil {
		return nil, false, fmt.Errorf("%w: bad unit list: %v", ErrFormat, err)
	}

	times := decodeFloats(timesBlob)
	flat := decodeFloats(samplesBlob)
	if len(flat) != len(channels)*len(axes)*len(times) {
		return nil, false, fmt.Errorf("%w: category %s has %d samples, expected %d",
			ErrFormat, category, len(flat), len(channels)*len(axes)*len(times))
	}

	values := make([][][]float64, len(channels))
	offset := 0
	for ci := range channels {
		values[ci] = make([][]float64, len(axes))
		for ai := range axes {
			values[ci][ai] = flat[offset : offset+len(times) : offset+len(times)]
			offset += len(times)
		}
	}

	meta := model.Meta{
		Rate:       rate,
		StartFrame: startFrame,
		EndFrame:   endFrame,
		CycleID:    cycleID,
		Context:    context,
	}
	arr, err := model.NewCategoryArray(category, channels, axes, units, times, values, meta)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return arr, true, nil
}

func readEvents(db *sql.DB, grp string) (*model.EventTable, bool, error) {
	var meta model.EventTableMeta
	err := db.QueryRow(`SELECT end_time, context, cycle_id FROM event_meta WHERE grp = ?`, grp).
		Scan(&meta.EndTime, &meta.Context, &meta.CycleID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := db.Query(`
		SELECT time, label, context, icon_id FROM event_rows
		WHERE grp = ? ORDER BY seq`, grp)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.Time, &e.Label, &e.Context, &e.IconID); err != nil {
			return nil, false, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	table := model.NewEventTable(events)
	table.Meta = meta
	return table, true, nil
}

// encodeFloats packs a float64 slice as little-endian bytes.
func encodeFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// encodeSamples flattens the value cube channel-major.
func encodeSamples(arr *model.CategoryArray) []byte {
	buf := make([]byte, 0, 8*len(arr.Channels)*len(arr.Axes)*len(arr.Times))
	for ci := range arr.Channels {
		for ai := range arr.Axes {
			buf = append(buf, encodeFloats(arr.Values[ci][ai])...)
		}
	}
	return buf
}

func decodeFloats(buf []byte) []float64 {
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return values
}
