package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type APIDriver struct {
	baseURL string
	client  *http.Client
}

func NewAPIDriver(baseURL string) *APIDriver {
	return &APIDriver{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (d *APIDriver) GetHealthz() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/healthz", d.baseURL))
}

func (d *APIDriver) GetReading(kind string, fresh bool) (*http.Response, error) {
	url := fmt.Sprintf("%s/coop/%s", d.baseURL, kind)
	if fresh {
		url += "?fresh=true"
	}
	return d.client.Get(url)
}

func (d *APIDriver) GetStatus() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/coop/status", d.baseURL))
}

func (d *APIDriver) GetOpeningTime() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/coop/opentime", d.baseURL))
}

func (d *APIDriver) GetClosingTime() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/coop/closetime", d.baseURL))
}

func (d *APIDriver) CommandDoor(dir string) (*http.Response, error) {
	return d.put("/coop/door", map[string]any{"dir": dir})
}

func (d *APIDriver) Reset() (*http.Response, error) {
	return d.put("/coop/reset", nil)
}

func (d *APIDriver) Echo(data string) (*http.Response, error) {
	reqBody, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		panic(err)
	}
	return d.client.Post(fmt.Sprintf("%s/coop/echo", d.baseURL), "application/json", bytes.NewBuffer(reqBody))
}

func (d *APIDriver) put(path string, body any) (*http.Response, error) {
	var reader *bytes.Buffer
	if body == nil {
		reader = &bytes.Buffer{}
	} else {
		reqBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewBuffer(reqBody)
	}

	req, err := http.NewRequest(http.MethodPut, d.baseURL+path, reader)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return d.client.Do(req)
}
