package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// Client calls the ledger service over HTTP. Every request carries the
// caller identity the client was constructed with in the caller header.
type Client struct {
	baseURL    string
	caller     interfaces.Identity
	httpClient *http.Client
}

// NewClient creates a ledger API client.
//
// Parameters:
//   - baseURL: base URL of the ledger service (e.g. "http://localhost:8080")
//   - caller: identity to act as
//   - timeout: request timeout duration (optional, default 30 seconds)
func NewClient(baseURL string, caller interfaces.Identity, timeout ...time.Duration) *Client {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &Client{
		baseURL: baseURL,
		caller:  caller,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// IsOperational queries the contract-wide operational gate.
func (c *Client) IsOperational() (bool, error) {
	var resp OperationalResponse
	if err := c.do("GET", "/api/public/operational", nil, &resp); err != nil {
		return false, err
	}
	return resp.Operational, nil
}

// SetOperatingStatus flips the operational gate. Admin only.
func (c *Client) SetOperatingStatus(mode bool) error {
	return c.do("POST", "/api/admin/operational", SetOperationalRequest{Mode: mode}, nil)
}

// AuthorizeCaller grants an application contract access to the guarded
// entry points. Admin only.
func (c *Client) AuthorizeCaller(caller interfaces.Identity) error {
	return c.do("POST", fmt.Sprintf("/api/admin/callers/%s", caller), nil, nil)
}

// DeauthorizeCaller revokes an application contract's access. Admin only.
func (c *Client) DeauthorizeCaller(caller interfaces.Identity) error {
	return c.do("DELETE", fmt.Sprintf("/api/admin/callers/%s", caller), nil, nil)
}

// AirlineStatus reports whether an airline is registered and funded.
func (c *Client) AirlineStatus(airline interfaces.Identity) (*AirlineStatusResponse, error) {
	var resp AirlineStatusResponse
	if err := c.do("GET", fmt.Sprintf("/api/public/airlines/%s", airline), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AirlineCount reports how many airlines are registered.
func (c *Client) AirlineCount() (uint64, error) {
	var resp AirlineCountResponse
	if err := c.do("GET", "/api/public/airlines", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// RegisterAirline nominates a candidate airline on behalf of origin.
func (c *Client) RegisterAirline(origin, candidate interfaces.Identity) (*RegisterAirlineResponse, error) {
	var resp RegisterAirlineResponse
	req := RegisterAirlineRequest{Origin: origin, Candidate: candidate}
	if err := c.do("POST", "/api/airlines/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fund submits the caller airline's registration ante.
func (c *Client) Fund(payment *hexutil.Big) (*FundResponse, error) {
	var resp FundResponse
	if err := c.do("POST", "/api/airlines/fund", FundRequest{Payment: payment}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Buy purchases insurance on a flight for the caller.
func (c *Client) Buy(flight FlightRef, payment *hexutil.Big) error {
	return c.do("POST", "/api/insurance/buy", BuyRequest{Flight: flight, Payment: payment}, nil)
}

// InsuranceAmount reports the caller's accumulated premium on one flight.
func (c *Client) InsuranceAmount(flight FlightRef) (*hexutil.Big, error) {
	q := url.Values{}
	q.Set("airline", flight.Airline.String())
	q.Set("number", flight.Number)
	q.Set("departure", strconv.FormatInt(flight.Departure, 10))

	var resp PolicyResponse
	if err := c.do("GET", "/api/public/insurance?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Amount, nil
}

// CreditInsurees settles a flight at multiplier/divider of each premium.
func (c *Client) CreditInsurees(flight FlightRef, multiplier, divider uint64) (int, error) {
	var resp CreditInsureesResponse
	req := CreditInsureesRequest{Flight: flight, Multiplier: multiplier, Divider: divider}
	if err := c.do("POST", "/api/insurance/credit", req, &resp); err != nil {
		return 0, err
	}
	return resp.Insurees, nil
}

// CreditBalance reports a passenger's withdrawable credit.
func (c *Client) CreditBalance(passenger interfaces.Identity) (*hexutil.Big, error) {
	var resp CreditResponse
	if err := c.do("GET", fmt.Sprintf("/api/public/credits/%s", passenger), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Credit, nil
}

// Pay withdraws the caller's entire credit balance.
func (c *Client) Pay() (*hexutil.Big, error) {
	var resp PayResponse
	if err := c.do("POST", "/api/insurance/pay", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Paid, nil
}

func (c *Client) do(method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(CallerHeader, c.caller.String())
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, string(raw))
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
