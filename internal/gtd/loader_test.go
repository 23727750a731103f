package gtd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCSV = `eventid,iyear,imonth,iday,country_txt,region_txt,provstate,city,latitude,longitude,success,suicide,attacktype1_txt,targtype1_txt,gname,weaptype1_txt,nkill,nwound,extra_col
1001,1995,0,0,Iraq,Middle East & North Africa,Baghdad,Baghdad,33.3,44.4,1,0,Bombing/Explosion,Police,Group A,Explosives,2,1,ignored
1002,1995,3,15,Iraq,Middle East & North Africa,,Mosul,,,0,0,Armed Assault,Military,,"Vehicle (not to include vehicle-borne explosives, i.e., car or truck bombs)",,,ignored
1003,2000,7,1,India,South Asia,Punjab,Amritsar,31.6,74.9,1,1,Bombing/Explosion,Private Citizens & Property,Group B,Explosives,5,5,ignored
`

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "incidents.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadParsesAndNormalises(t *testing.T) {
	ds, err := Load(Options{DataPath: writeTestCSV(t)})
	require.NoError(t, err)
	require.Len(t, ds.Incidents, 3)

	first := ds.Incidents[0]
	require.Equal(t, 1995, first.Year)
	require.Equal(t, 1, first.Month, "zero month coerced to 1")
	require.Equal(t, 1, first.Day, "zero day coerced to 1")
	require.Equal(t, 3.0, first.Casualties)
	require.True(t, first.Success)
	require.True(t, first.HasCoordinates())

	second := ds.Incidents[1]
	require.Equal(t, UnknownGroup, second.Group, "empty gname null-filled")
	require.Equal(t, "Vehicle", second.WeaponType, "long vehicle label shortened")
	require.Equal(t, 0.0, second.Kills, "empty nkill null-filled to 0")
	require.False(t, second.HasCoordinates())

	require.Equal(t, 1995, ds.Meta.YearMin)
	require.Equal(t, 2000, ds.Meta.YearMax)
	require.Equal(t, []string{"Middle East & North Africa", "South Asia"}, ds.Meta.Regions)
}

func TestLoadMissingFileIsDataUnavailable(t *testing.T) {
	_, err := Load(Options{DataPath: filepath.Join(t.TempDir(), "nope.csv")})
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestLoadMissingColumnIsDataUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("iyear,imonth\n1995,1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := Load(Options{DataPath: path})
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dataPath := writeTestCSV(t)
	snapPath := filepath.Join(t.TempDir(), "snapshot.db")

	fromCSV, err := Load(Options{DataPath: dataPath, SnapshotPath: snapPath})
	require.NoError(t, err)

	// Second load must hit the snapshot and produce the identical dataset.
	rows, ok, err := loadSnapshot(snapPath, dataPath)
	require.NoError(t, err)
	require.True(t, ok, "snapshot should be current")
	enrich(rows)
	require.Equal(t, fromCSV.Incidents, rows)
}

func TestSnapshotStaleAfterSourceChange(t *testing.T) {
	dataPath := writeTestCSV(t)
	snapPath := filepath.Join(t.TempDir(), "snapshot.db")

	_, err := Load(Options{DataPath: dataPath, SnapshotPath: snapPath})
	require.NoError(t, err)

	// Grow the source file; the stamp no longer matches.
	require.NoError(t, os.WriteFile(dataPath, []byte(testCSV+"1004,2001,1,1,India,South Asia,Punjab,Delhi,28.6,77.2,1,0,Armed Assault,Police,Group B,Firearms,1,0,x\n"), 0o644))

	_, ok, err := loadSnapshot(snapPath, dataPath)
	require.NoError(t, err)
	require.False(t, ok, "snapshot should be stale")
}
