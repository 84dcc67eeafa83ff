package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/config"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	variants = config.DefaultVariants
	userSel  = browser.CSS(variants.UsernameInput)
	passSel  = browser.CSS(variants.PasswordInput)
)

func newDriver(page *fakePage) *Driver {
	return NewDriver(page, variants, config.FastTiming)
}

func loginPage(acceptPassword string) *fakePage {
	page := newFakePage(userSel, passSel)
	page.onPress = func(p *fakePage, key string) {
		if key == browser.KeyEnter && p.typed[passSel.String()] == acceptPassword {
			p.hide(userSel)
			p.hide(passSel)
		}
	}
	return page
}

func TestLoginSuccess(t *testing.T) {
	page := loginPage("secret")

	err := newDriver(page).Login(context.Background(), Credentials{Username: "fleet", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"navigate " + variants.LoginURL,
		`type #txtname="fleet"`,
		`press "\t"`,
		`type #txtpass="secret"`,
		`press "\r"`,
	}, page.actions)
}

func TestLoginRejected(t *testing.T) {
	page := loginPage("secret")

	err := newDriver(page).Login(context.Background(), Credentials{Username: "fleet", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, failure.Auth, failure.KindOf(err))
	assert.Contains(t, err.Error(), "login form still present")
}

func TestLoginPageUnreachable(t *testing.T) {
	page := loginPage("secret")
	page.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	err := newDriver(page).Login(context.Background(), Credentials{Username: "fleet", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, failure.Auth, failure.KindOf(err))
	assert.Zero(t, page.count("type"))
}

func TestOpenReportFallsBackToMenuPosition(t *testing.T) {
	page := newFakePage(
		browser.CSS(variants.MenuPosition),
		browser.XPath(variants.ReportLinkXPath),
	)

	err := newDriver(page).OpenReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"click " + variants.MenuPosition,
		"click xpath:" + variants.ReportLinkXPath,
	}, page.actions)
}

func TestOpenReportFallsBackToLinkPosition(t *testing.T) {
	page := newFakePage(
		browser.XPath(variants.MenuXPath),
		browser.CSS(variants.ReportLinkPosition),
	)

	err := newDriver(page).OpenReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.count("click "+variants.ReportLinkPosition))
}

func TestOpenReportIconClick(t *testing.T) {
	page := newFakePage(browser.XPath(variants.ReportLinkXPath))
	page.evals[markerJSClick] = func(script string) (any, error) {
		return strings.Contains(script, jsArg(variants.MenuIcon)), nil
	}

	err := newDriver(page).OpenReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.count("eval "+markerJSClick))
}

func TestOpenReportDirectURL(t *testing.T) {
	v := variants
	v.ReportURL = "https://gps.dtc.co.th/ultimate/report_dms.php"
	page := newFakePage()

	err := NewDriver(page, v, config.FastTiming).OpenReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"navigate " + v.ReportURL}, page.actions)
}

func TestOpenReportFails(t *testing.T) {
	page := newFakePage()
	page.evals[markerJSClick] = func(string) (any, error) { return false, nil }

	err := newDriver(page).OpenReport(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.Navigation, failure.KindOf(err))
	for _, name := range []string{"sidebar-text", "sidebar-position", "sidebar-icon"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestSelectTruckScopeWaitsForOptions(t *testing.T) {
	page := newFakePage()
	polls := 0
	page.evals[markerTruckReady] = func(string) (any, error) {
		polls++
		return polls >= 3, nil
	}
	page.evals[markerTruckSelect] = func(script string) (any, error) {
		if strings.Contains(script, `"ALL"`) {
			return "ทั้งหมด", nil
		}
		return "", nil
	}

	selected, err := newDriver(page).SelectTruckScope(context.Background(), ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, "ทั้งหมด", selected)
	assert.Equal(t, 3, polls)
}

func TestSelectTruckScopeEmptyKeepsDefault(t *testing.T) {
	page := newFakePage()

	selected, err := newDriver(page).SelectTruckScope(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, selected)
	assert.Empty(t, page.actions)
}

func TestSelectTruckScopeNeverReady(t *testing.T) {
	page := newFakePage()
	page.evals[markerTruckReady] = func(string) (any, error) { return false, nil }

	_, err := newDriver(page).SelectTruckScope(context.Background(), ScopeAll)
	require.Error(t, err)
	assert.Equal(t, failure.Filter, failure.KindOf(err))
	assert.Zero(t, page.count("eval "+markerTruckSelect))
}

func TestSelectTruckScopeUnknownVehicle(t *testing.T) {
	page := newFakePage()
	page.evals[markerTruckReady] = func(string) (any, error) { return true, nil }
	page.evals[markerTruckSelect] = func(string) (any, error) { return "", nil }

	_, err := newDriver(page).SelectTruckScope(context.Background(), "80-1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no vehicle option matches "80-1234"`)
}

func TestSelectReportTypes(t *testing.T) {
	page := newFakePage()
	page.evals[markerCheckboxLabel] = func(script string) (any, error) {
		return strings.Contains(script, jsArg("ง่วงนอน")), nil
	}
	page.evals[markerTextScan] = func(script string) (any, error) {
		return strings.Contains(script, jsArg("หาวนอน")), nil
	}

	result := newDriver(page).SelectReportTypes(context.Background(),
		[]string{"ง่วงนอน", "หาวนอน", "ง่วงนอน", " ", "ใช้โทรศัพท์"})

	assert.Equal(t, []AppliedFilter{
		{Keyword: "ง่วงนอน", Strategy: "checkbox-label"},
		{Keyword: "หาวนอน", Strategy: "text-scan"},
	}, result.Applied)
	assert.Equal(t, []string{"ใช้โทรศัพท์"}, result.Missed)
}

func TestSelectReportTypesDropdownSearch(t *testing.T) {
	dropdown := browser.CSS("#" + variants.ReportTypeDropdownID)
	search := browser.CSS("#reporttype input[type='search'], #reporttype input")
	page := newFakePage(dropdown, search)
	page.evals[markerCheckboxLabel] = func(string) (any, error) { return false, nil }
	page.evals[markerDropdownPick] = func(script string) (any, error) {
		return strings.Contains(script, jsArg("ละสายตา")), nil
	}

	result := newDriver(page).SelectReportTypes(context.Background(), []string{"ละสายตา"})

	require.Len(t, result.Applied, 1)
	assert.Equal(t, "dropdown-search", result.Applied[0].Strategy)
	assert.Equal(t, "ละสายตา", page.typed[search.String()])
	assert.Equal(t, 1, page.count(`press "\r"`))
	assert.Equal(t, 1, page.count("eval "+markerDropdownPick))
}

func TestSelectReportTypesDropdownWithoutMatch(t *testing.T) {
	dropdown := browser.CSS("#" + variants.ReportTypeDropdownID)
	search := browser.CSS("#reporttype input[type='search'], #reporttype input")
	page := newFakePage(dropdown, search)
	page.evals[markerCheckboxLabel] = func(string) (any, error) { return false, nil }
	page.evals[markerDropdownPick] = func(string) (any, error) { return false, nil }
	page.evals[markerTextScan] = func(string) (any, error) { return false, nil }

	result := newDriver(page).SelectReportTypes(context.Background(), []string{"no-such-type"})

	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{"no-such-type"}, result.Missed)
	assert.Equal(t, 1, page.count(`press "\r"`))
	assert.Equal(t, 1, page.count("eval "+markerTextScan))
}

func TestSelectReportTypesDropdownFallsThroughToTextScan(t *testing.T) {
	dropdown := browser.CSS("#" + variants.ReportTypeDropdownID)
	search := browser.CSS("#reporttype input[type='search'], #reporttype input")
	page := newFakePage(dropdown, search)
	page.evals[markerCheckboxLabel] = func(string) (any, error) { return false, nil }
	page.evals[markerDropdownPick] = func(string) (any, error) { return false, nil }
	page.evals[markerTextScan] = func(string) (any, error) { return true, nil }

	result := newDriver(page).SelectReportTypes(context.Background(), []string{"ใช้โทรศัพท์"})

	assert.Equal(t, []AppliedFilter{{Keyword: "ใช้โทรศัพท์", Strategy: "text-scan"}}, result.Applied)
	assert.Empty(t, result.Missed)
}

func TestTextScanScriptPrefersCheckbox(t *testing.T) {
	script := textScanScript("ง่วงนอน")

	assert.True(t, strings.HasPrefix(script, markerTextScan))
	assert.Contains(t, script, `node.closest("label, li, a, button, [role=option], [onclick]")`)
	assert.Contains(t, script, "if (!box.checked) box.click();")
	assert.Contains(t, script, jsArg("ง่วงนอน"))
}

func testWindow() window.Window {
	loc := time.FixedZone("ICT", 7*3600)
	return window.Today(time.Date(2024, 5, 1, 19, 30, 0, 0, loc), loc)
}

func TestEnterDateRange(t *testing.T) {
	start := browser.CSS(variants.StartDateInput)
	end := browser.CSS(variants.EndDateInput)
	page := newFakePage(start, end)
	page.typed[start.String()] = "2024-04-30 06:00"

	err := newDriver(page).EnterDateRange(context.Background(), testWindow())
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01 06:00", page.typed[start.String()])
	assert.Equal(t, "2024-05-01 18:00", page.typed[end.String()])
	assert.Equal(t, `set #date9=""`, page.actions[0])
}

func TestEnterDateRangeMissingInput(t *testing.T) {
	page := newFakePage(browser.CSS(variants.StartDateInput))

	err := newDriver(page).EnterDateRange(context.Background(), testWindow())
	require.Error(t, err)
	assert.Equal(t, failure.Filter, failure.KindOf(err))
}

func TestTriggerSearch(t *testing.T) {
	page := newFakePage(browser.CSS(variants.SearchPosition))
	require.NoError(t, newDriver(page).TriggerSearch(context.Background()))
	assert.Equal(t, []string{"click " + variants.SearchPosition}, page.actions)

	err := newDriver(newFakePage()).TriggerSearch(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.Navigation, failure.KindOf(err))
}

func TestApplyFilters(t *testing.T) {
	page := newFakePage(
		browser.CSS(variants.StartDateInput),
		browser.CSS(variants.EndDateInput),
		browser.XPath(variants.SearchXPath),
	)
	page.evals[markerTruckReady] = func(string) (any, error) { return true, nil }
	page.evals[markerTruckSelect] = func(string) (any, error) { return "All", nil }
	page.evals[markerCheckboxLabel] = func(string) (any, error) { return true, nil }

	result, err := newDriver(page).ApplyFilters(context.Background(), FilterSpec{
		TruckScope:  ScopeAll,
		ReportTypes: []string{"ง่วงนอน"},
	}, testWindow())

	require.NoError(t, err)
	assert.Equal(t, "All", result.TruckScope)
	assert.Len(t, result.Applied, 1)
	assert.Empty(t, result.Missed)
	assert.Equal(t, 1, page.count("click xpath:"))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.xls"), []byte("old"), 0o644))

	exportBtn := browser.CSS(variants.ExportByTitle)
	page := newFakePage(exportBtn)
	page.onClick[exportBtn.String()] = func(p *fakePage) {
		_ = os.WriteFile(filepath.Join(dir, "DMS_Report.xls"), []byte("<table></table>"), 0o644)
	}

	got, err := newDriver(page).Export(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "DMS_Report.xls", got.Name)

	_, err = os.Stat(filepath.Join(dir, "stale.xls"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportNoDownload(t *testing.T) {
	page := newFakePage(browser.CSS(variants.ExportByID))

	_, err := newDriver(page).Export(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, failure.Export, failure.KindOf(err))
}

func TestExportNoControl(t *testing.T) {
	_, err := newDriver(newFakePage()).Export(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, failure.Export, failure.KindOf(err))
	assert.Contains(t, err.Error(), "click-export")
}
