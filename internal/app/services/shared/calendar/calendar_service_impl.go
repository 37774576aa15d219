package calendar

import (
	"bytes"
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tokenEndpoint   = "https://oauth2.googleapis.com/token"
	calendarScope   = "https://www.googleapis.com/auth/calendar.events"
	grantTypeJWT    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL    = time.Hour
	tokenSkewMargin = time.Minute
)

type calendarService struct {
	BaseUrl             string
	ServiceAccountEmail string
	PrivateKey          *rsa.PrivateKey
	Client              *http.Client
	Limiter             *rate.Limiter
	Log                 *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var (
	calendarInstance contracts.CalendarService
	onceCalendar     sync.Once
)

func NewCalendarService(internalConfig *config.InternalConfig, logger *zap.Logger) (contracts.CalendarService, error) {
	var initErr error
	onceCalendar.Do(func() {
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(internalConfig.Calendar.PrivateKeyPEM))
		if err != nil {
			initErr = exceptions.ErrCalendarSignAssertion(err)
			return
		}
		rps := internalConfig.Calendar.RequestsPerSecond
		if rps <= 0 {
			rps = 5
		}
		calendarInstance = &calendarService{
			BaseUrl:             internalConfig.Calendar.BaseUrl,
			ServiceAccountEmail: internalConfig.Calendar.ServiceAccountEmail,
			PrivateKey:          key,
			Client:              &http.Client{Timeout: 10 * time.Second},
			Limiter:             rate.NewLimiter(rate.Limit(rps), 1),
			Log:                 logger,
		}
	})
	return calendarInstance, initErr
}

func (s *calendarService) CreateEvent(ctx context.Context, clinicID, attendeeEmail, testName string, start time.Time, durationMinutes int) (*contracts.CalendarEvent, error) {
	if err := s.Limiter.Wait(ctx); err != nil {
		return nil, exceptions.ErrCalendarCreateEvent(err)
	}

	token, err := s.accessTokenFor(ctx)
	if err != nil {
		return nil, err
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	payload := map[string]any{
		"summary":     fmt.Sprintf("Lab appointment: %s", testName),
		"description": fmt.Sprintf("Clinic %s", clinicID),
		"start":       map[string]string{"dateTime": start.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": end.Format(time.RFC3339)},
		"attendees":   []map[string]string{{"email": attendeeEmail}},
		"conferenceData": map[string]any{
			"createRequest": map[string]any{
				"requestId": fmt.Sprintf("%s-%d", clinicID, start.Unix()),
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	endpoint := fmt.Sprintf("%s/calendars/primary/events?conferenceDataVersion=1", s.BaseUrl)
	httpReq, err := http.NewRequestWithContext(ctx, constvars.MethodPost, endpoint, bytes.NewBuffer(raw))
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	httpReq.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	httpReq.Header.Set(constvars.HeaderAuthorization, "Bearer "+token)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, exceptions.ErrCalendarCreateEvent(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		s.Log.Error("calendarService event creation returned non-2xx",
			zap.Int(constvars.LoggingStatusCodeKey, resp.StatusCode),
			zap.String("response", string(body)),
		)
		return nil, exceptions.ErrCalendarCreateEvent(fmt.Errorf("calendar API returned %d", resp.StatusCode))
	}

	var result struct {
		HtmlLink       string `json:"htmlLink"`
		ConferenceData struct {
			EntryPoints []struct {
				EntryPointType string `json:"entryPointType"`
				URI            string `json:"uri"`
			} `json:"entryPoints"`
		} `json:"conferenceData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, exceptions.ErrCalendarCreateEvent(err)
	}

	event := &contracts.CalendarEvent{EventLink: result.HtmlLink}
	for _, entry := range result.ConferenceData.EntryPoints {
		if entry.EntryPointType == "video" {
			event.MeetLink = entry.URI
			break
		}
	}
	return event, nil
}

// accessTokenFor exchanges a signed service-account assertion for a bearer
// token, caching it until shortly before expiry.
func (s *calendarService) accessTokenFor(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-tokenSkewMargin)) {
		return s.accessToken, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.ServiceAccountEmail,
		"scope": calendarScope,
		"aud":   tokenEndpoint,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.PrivateKey)
	if err != nil {
		return "", exceptions.ErrCalendarSignAssertion(err)
	}

	form := url.Values{}
	form.Set("grant_type", grantTypeJWT)
	form.Set("assertion", assertion)

	httpReq, err := http.NewRequestWithContext(ctx, constvars.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", exceptions.ErrCreateHTTPRequest(err)
	}
	httpReq.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationForm)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return "", exceptions.ErrCalendarSignAssertion(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", exceptions.ErrCalendarSignAssertion(fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, string(body)))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", exceptions.ErrCalendarSignAssertion(err)
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpiry = now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return s.accessToken, nil
}
