package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsletter-cli/internal/model"
)

func TestMailchimp_FormFields(t *testing.T) {
	var gotForm map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		_, _ = fmt.Fprint(w, "Almost finished...")
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	res := c.For(model.ProviderMailchimp).Submit(context.Background(), ts.URL,
		map[string]string{"u": "AAA", "id": "BBB", "MMERGE1": "x"}, "diner@example.com")

	assert.True(t, res.Success)
	assert.Contains(t, res.Evidence, "status 200")
	assert.Contains(t, res.Evidence, "Almost finished")
	assert.Equal(t, "diner@example.com", gotForm["EMAIL"][0])
	assert.Equal(t, "AAA", gotForm["u"][0])
	assert.Equal(t, "BBB", gotForm["id"][0])
	assert.Equal(t, "x", gotForm["MMERGE1"][0])
}

func TestKlaviyo_JSONBody(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	res := c.For(model.ProviderKlaviyo).Submit(context.Background(), ts.URL,
		map[string]string{"list_id": "Lm9", "company_id": "Xy7"}, "diner@example.com")

	assert.True(t, res.Success)
	assert.Equal(t, "diner@example.com", gotBody["email"])
	assert.Equal(t, "Lm9", gotBody["g"])
	assert.Equal(t, "Xy7", gotBody["company_id"])
}

func TestKlaviyo_OmitsMissingIdentifiers(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	c.For(model.ProviderKlaviyo).Submit(context.Background(), ts.URL, map[string]string{}, "d@example.com")

	assert.Equal(t, "d@example.com", gotBody["email"])
	assert.NotContains(t, gotBody, "g")
	assert.NotContains(t, gotBody, "company_id")
}

func TestGeneric_FieldNameByProvider(t *testing.T) {
	cases := []struct {
		provider string
		field    string
	}{
		{model.ProviderSquarespace, "email"},
		{model.ProviderMailerLite, "fields[email]"},
		{"someplatform", "email"}, // unknown provider defaults
	}

	for _, tc := range cases {
		var gotForm map[string][]string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = r.PostForm
		}))

		c := NewClient(5 * time.Second)
		res := c.For(tc.provider).Submit(context.Background(), ts.URL, nil, "d@example.com")
		ts.Close()

		assert.True(t, res.Success, tc.provider)
		require.Contains(t, gotForm, tc.field, tc.provider)
		assert.Equal(t, "d@example.com", gotForm[tc.field][0])
	}
}

func TestSubmit_RedirectCountsAsSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/subscribe", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/thanks", http.StatusSeeOther)
	})
	mux.HandleFunc("/thanks", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "Thanks for subscribing")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(5 * time.Second)
	res := c.Generic().Submit(context.Background(), ts.URL+"/subscribe", nil, "d@example.com")
	assert.True(t, res.Success)
	assert.Contains(t, res.Evidence, "Thanks for subscribing")
}

func TestSubmit_FailureStatusIsEvidence(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprint(w, `{"errors":["email invalid"]}`)
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	res := c.For(model.ProviderMailchimp).Submit(context.Background(), ts.URL, nil, "d@example.com")
	assert.False(t, res.Success)
	assert.Contains(t, res.Evidence, "status 422")
	assert.Contains(t, res.Evidence, "email invalid")
}

func TestSubmit_NetworkFailureNeverRaises(t *testing.T) {
	c := NewClient(2 * time.Second)
	res := c.Generic().Submit(context.Background(), "http://192.0.2.1:1/subscribe", nil, "d@example.com")
	assert.False(t, res.Success)
	assert.Contains(t, res.Evidence, "request failed")
	assert.NotEmpty(t, res.Evidence)
}

func TestSubmit_EvidenceBodyTruncated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("a", 5000))
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	res := c.Generic().Submit(context.Background(), ts.URL, nil, "d@example.com")
	assert.True(t, res.Success)
	assert.LessOrEqual(t, len(res.Evidence), evidenceBodyLimit+50)
}
