package browser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/captchaflow/browser"
	"github.com/solvekit/captchaflow/testutil"
	"github.com/solvekit/captchaflow/types"
)

func TestEnterSwitchesToCheckboxFrame(t *testing.T) {
	driver := testutil.NewFakeDriver()
	driver.CurrentFrame = "api2/bframe" // previously inside the challenge frame

	nav := browser.NewFrameNavigator(driver, time.Second, nil)
	require.NoError(t, nav.Enter(testutil.TestContext(t), browser.SurfaceCheckbox))

	assert.Equal(t, []string{"api2/anchor"}, driver.EnteredFrames)
	assert.Equal(t, "api2/anchor", driver.CurrentFrame)
}

func TestEnterSwitchesToChallengeFrame(t *testing.T) {
	driver := testutil.NewFakeDriver()

	nav := browser.NewFrameNavigator(driver, time.Second, nil)
	require.NoError(t, nav.Enter(testutil.TestContext(t), browser.SurfaceChallenge))

	assert.Equal(t, []string{"api2/bframe"}, driver.EnteredFrames)
}

func TestEnterMissingFrameIsFatal(t *testing.T) {
	driver := testutil.NewFakeDriver()
	driver.FrameErrs["api2/bframe"] = testutil.ErrNotFound("api2/bframe")

	nav := browser.NewFrameNavigator(driver, time.Second, nil)
	err := nav.Enter(testutil.TestContext(t), browser.SurfaceChallenge)

	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrFrameNotFound))
}

func TestEnterUnknownSurface(t *testing.T) {
	nav := browser.NewFrameNavigator(testutil.NewFakeDriver(), time.Second, nil)
	err := nav.Enter(testutil.TestContext(t), browser.Surface("popup"))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrFrameNotFound))
}
