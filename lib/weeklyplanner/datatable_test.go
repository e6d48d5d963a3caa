package weeklyplanner

import (
	"testing"

	"weeklyplanner-auto/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExtractStaffTable(t *testing.T) {
	content := testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
		testutil.StaffRow("77", "A Smith", "113B"),
	)

	table, err := ExtractStaffTable(content)
	require.NoError(t, err)
	require.Empty(t, table.Malformed)

	expected := []StaffRecord{
		{Name: "J Doe", StaffId: "55", Room: "204"},
		{Name: "A Smith", StaffId: "77", Room: "113B"},
	}
	if diff := cmp.Diff(expected, table.Records); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestExtractStaffTableToleratesMalformedRows(t *testing.T) {
	content := testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
		// no room token after the line break
		"<tr><td><span id='name66'> B Robbed </span></td></tr>",
		testutil.StaffRow("77", "A Smith", "113B"),
	)

	table, err := ExtractStaffTable(content)
	require.NoError(t, err)

	// the bad row is recorded, the good rows survive in order
	require.Len(t, table.Malformed, 1)
	require.Contains(t, table.Malformed[0], "B Robbed")
	expected := []StaffRecord{
		{Name: "J Doe", StaffId: "55", Room: "204"},
		{Name: "A Smith", StaffId: "77", Room: "113B"},
	}
	if diff := cmp.Diff(expected, table.Records); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestExtractStaffTableUnknownRowShape(t *testing.T) {
	content := testutil.StaffContent(
		"<tr><td>Room closed for maintenance</td></tr>",
	)

	table, err := ExtractStaffTable(content)
	require.NoError(t, err)
	require.Empty(t, table.Records)
	require.Len(t, table.Malformed, 1)
}

func TestExtractStaffTableNoTbody(t *testing.T) {
	_, err := ExtractStaffTable("<div>server error</div>")
	require.Error(t, err)
}
