package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"

	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/bus/simulator"
	"coop-server/internal/coop/httpapi"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/cache"
	"coop-server/internal/infra/httpserver"
	"coop-server/test/functional/driver"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/require"
)

const (
	openSchedule  = "0 7 * * *"
	closeSchedule = "0 20 * * *"
)

type FeatureContext struct {
	apiDriver    *driver.APIDriver
	server       *httptest.Server
	device       *simulator.Device
	readings     *cache.RistrettoCache
	broker       *async.LocalBroker
	response     *http.Response
	responseData map[string]any
	require      *require.Assertions
	t            godog.TestingT
}

func NewFeatureContext() *FeatureContext {
	fc := &FeatureContext{}
	if IsExternalMode() {
		fc.apiDriver = driver.NewAPIDriver(os.Getenv("EXTERNAL_API_URL"))
	}
	return fc
}

// IsExternalMode reports whether scenarios run against an already running
// server instead of an in-process one backed by the simulator.
func IsExternalMode() bool {
	return os.Getenv("EXTERNAL_API_URL") != ""
}

func (fc *FeatureContext) RegisterSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^wait for (.*)$`, fc.waitForDuration)
	ctx.Then(`^the response status code should be (\d+)$`, fc.theResponseStatusCodeShouldBe)
	ctx.Then(`^the response should be the number (-?\d+)$`, fc.theResponseShouldBeTheNumber)
	ctx.Then(`^the response error code should be "([^"]*)"$`, fc.theResponseErrorCodeShouldBe)
	ctx.Then(`^the response header "([^"]*)" should be "([^"]*)"$`, fc.theResponseHeaderShouldBe)

	ctx.When(`^I call the healthz endpoint$`, fc.iCallTheHealthzEndpoint)
	ctx.Then(`^the response should contain status information$`, fc.theResponseShouldContainStatusInformation)

	ctx.Given(`^the coop temperature is (\d+)$`, fc.theCoopTemperatureIs)
	ctx.Given(`^the bus fails the next (\d+) writes?$`, fc.theBusFailsTheNextWrites)
	ctx.Given(`^the bus fails the next (\d+) reads?$`, fc.theBusFailsTheNextReads)
	ctx.When(`^I command the door to "([^"]*)"$`, fc.iCommandTheDoorTo)
	ctx.When(`^I reset the coop$`, fc.iResetTheCoop)
	ctx.When(`^I echo "([^"]*)"$`, fc.iEcho)
	ctx.When(`^I get the "([^"]*)" reading$`, fc.iGetTheReading)
	ctx.When(`^I get a fresh "([^"]*)" reading$`, fc.iGetAFreshReading)
	ctx.When(`^I get the coop status$`, fc.iGetTheCoopStatus)
	ctx.When(`^I get the opening time$`, fc.iGetTheOpeningTime)
	ctx.When(`^I get the closing time$`, fc.iGetTheClosingTime)
	ctx.Then(`^the status field "([^"]*)" should be (-?\d+)$`, fc.theStatusFieldShouldBe)
	ctx.Then(`^the status field "([^"]*)" should be (true|false)$`, fc.theStatusFlagShouldBe)
	ctx.Then(`^the response should be a time at (\d{2}):(\d{2})$`, fc.theResponseShouldBeATimeAt)

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.t = godog.T(ctx)
		fc.require = require.New(fc.t)

		fc.reset()
		if !IsExternalMode() {
			if err := fc.startServer(); err != nil {
				return ctx, err
			}
		}
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		fc.stopServer()
		return ctx, err
	})
}

func (fc *FeatureContext) reset() {
	fc.response = nil
	fc.responseData = nil
}

func (fc *FeatureContext) startServer() error {
	readings, err := cache.New(nil)
	if err != nil {
		return fmt.Errorf("creating readings cache: %w", err)
	}
	schedule, err := usecases.NewCronSchedule(openSchedule, closeSchedule)
	if err != nil {
		return fmt.Errorf("creating door schedule: %w", err)
	}

	fc.device = simulator.New()
	fc.readings = readings
	fc.broker = async.NewLocalBroker()

	controller := bus.NewController(fc.device, bus.Options{})
	service := usecases.NewCoopService(controller, readings, fc.broker, schedule, usecases.CoopServiceConfig{})
	server := httpserver.NewServer(httpserver.Config{}, httpapi.NewCoopController(service))

	fc.server = httptest.NewServer(server.Handler())
	fc.apiDriver = driver.NewAPIDriver(fc.server.URL)
	return nil
}

func (fc *FeatureContext) stopServer() {
	if fc.server == nil {
		return
	}
	fc.server.Close()
	fc.broker.Stop()
	fc.readings.Close()
	fc.server = nil
	fc.device = nil
}

func (fc *FeatureContext) decodeBody(body io.ReadCloser, v any) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}
