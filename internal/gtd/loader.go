package gtd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrDataUnavailable wraps every load failure: missing source file, missing
// columns, unparseable rows. There is no recovery path; callers treat it as
// fatal to startup.
var ErrDataUnavailable = errors.New("gtd: dataset unavailable")

// Options configures Load.
type Options struct {
	// DataPath is the CSV extract of the source dataset.
	DataPath string
	// SnapshotPath, when non-empty, names a sqlite snapshot cache. A current
	// snapshot is loaded instead of re-parsing the CSV; after a CSV parse the
	// snapshot is rewritten.
	SnapshotPath string
}

// The expected CSV column set. Anything else in the file is ignored.
var requiredColumns = []string{
	"iyear", "imonth", "iday", "eventid",
	"country_txt", "region_txt", "provstate", "city",
	"latitude", "longitude", "success", "suicide",
	"attacktype1_txt", "targtype1_txt", "gname", "weaptype1_txt",
	"nkill", "nwound",
}

// The source dataset spells out vehicle weapons with a parenthetical that is
// useless as an axis label.
const longVehicleLabel = "Vehicle (not to include vehicle-borne explosives, i.e., car or truck bombs)"

// Load reads the dataset, normalises missing values, derives the computed
// columns and metadata, and returns the process-lifetime Dataset. It is
// intended to be called once at startup; the returned Dataset is immutable.
func Load(opts Options) (*Dataset, error) {
	if opts.SnapshotPath != "" {
		rows, ok, err := loadSnapshot(opts.SnapshotPath, opts.DataPath)
		if err != nil {
			log.Printf("snapshot load failed, falling back to CSV: %v", err)
		} else if ok {
			enrich(rows)
			return &Dataset{Incidents: rows, Meta: buildMeta(rows)}, nil
		}
	}

	rows, err := parseCSV(opts.DataPath)
	if err != nil {
		return nil, err
	}
	enrich(rows)

	if opts.SnapshotPath != "" {
		if err := writeSnapshot(opts.SnapshotPath, opts.DataPath, rows); err != nil {
			// The cache is an optimisation; a write failure is not fatal.
			log.Printf("snapshot write failed: %v", err)
		}
	}

	return &Dataset{Incidents: rows, Meta: buildMeta(rows)}, nil
}

func parseCSV(path string) ([]Incident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	// The source extract is latin1-encoded.
	r := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrDataUnavailable, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrDataUnavailable, name)
		}
	}

	var rows []Incident
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataUnavailable, line, err)
		}
		in, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataUnavailable, line, err)
		}
		rows = append(rows, in)
	}
	return rows, nil
}

func parseRow(rec []string, idx map[string]int) (Incident, error) {
	field := func(name string) string { return rec[idx[name]] }

	year, err := strconv.Atoi(field("iyear"))
	if err != nil {
		return Incident{}, fmt.Errorf("iyear: %v", err)
	}
	month, err := intOrZero(field("imonth"))
	if err != nil {
		return Incident{}, fmt.Errorf("imonth: %v", err)
	}
	day, err := intOrZero(field("iday"))
	if err != nil {
		return Incident{}, fmt.Errorf("iday: %v", err)
	}
	eventID, err := strconv.ParseInt(field("eventid"), 10, 64)
	if err != nil {
		return Incident{}, fmt.Errorf("eventid: %v", err)
	}

	in := Incident{
		EventID:    eventID,
		Year:       year,
		Month:      month,
		Day:        day,
		Country:    fillEmpty(field("country_txt"), UnknownCountry),
		Region:     fillEmpty(field("region_txt"), UnknownRegion),
		ProvState:  field("provstate"),
		City:       fillEmpty(field("city"), UnknownCity),
		AttackType: fillEmpty(field("attacktype1_txt"), UnknownAttack),
		TargetType: fillEmpty(field("targtype1_txt"), UnknownTarget),
		WeaponType: fillEmpty(field("weaptype1_txt"), UnknownWeapon),
		Group:      fillEmpty(field("gname"), UnknownGroup),
	}
	if in.WeaponType == longVehicleLabel {
		in.WeaponType = "Vehicle"
	}

	in.Latitude, err = floatOrNil(field("latitude"))
	if err != nil {
		return Incident{}, fmt.Errorf("latitude: %v", err)
	}
	in.Longitude, err = floatOrNil(field("longitude"))
	if err != nil {
		return Incident{}, fmt.Errorf("longitude: %v", err)
	}
	in.Kills, err = floatOrZero(field("nkill"))
	if err != nil {
		return Incident{}, fmt.Errorf("nkill: %v", err)
	}
	in.Wounds, err = floatOrZero(field("nwound"))
	if err != nil {
		return Incident{}, fmt.Errorf("nwound: %v", err)
	}
	in.Success, err = boolFlag(field("success"))
	if err != nil {
		return Incident{}, fmt.Errorf("success: %v", err)
	}
	in.Suicide, err = boolFlag(field("suicide"))
	if err != nil {
		return Incident{}, fmt.Errorf("suicide: %v", err)
	}
	return in, nil
}

func fillEmpty(v, sentinel string) string {
	if v == "" {
		return sentinel
	}
	return v
}

func intOrZero(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func floatOrZero(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func floatOrNil(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func boolFlag(v string) (bool, error) {
	f, err := floatOrZero(v)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}
