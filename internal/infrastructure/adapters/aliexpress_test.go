package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powersearch/backend/internal/domain"
)

const aliexpressFixture = `
<html><body>
<div class="list--gallery--C2f2tvm">
  <a class="manhattan--container--1lP57Ag" href="//www.aliexpress.com/item/1005004123456789.html"></a>
  <h3 class="manhattan--titleText--WccSjUS">Wireless Bluetooth Headphones Noise Cancelling</h3>
  <div class="manhattan--price-sale--1CCSZfK">€35.99</div>
  <div class="manhattan--price-original--3T6qm4R">€59.99</div>
  <span class="manhattan--evaluation--3cSMNl3">4.7</span>
  <span class="manhattan--trade--2PeJIEB">3,412 sold</span>
  <span class="manhattan--trade--2QoLtRn">Free Shipping</span>
  <img class="manhattan--img--36QXbtQ" src="//ae01.alicdn.com/kf/headphones.jpg"/>
</div>
<div class="list--gallery--C2f2tvm">
  <h3 class="manhattan--titleText--WccSjUS">Untitled placeholder without price</h3>
</div>
</body></html>`

func TestAliExpressAdapter_Search(t *testing.T) {
	fetcher := &fakeFetcher{html: aliexpressFixture}
	adapter := NewAliExpressAdapter(fetcher, nil)

	listings, err := adapter.Search(context.Background(), domain.SearchIntent{Query: "wireless headphones"}, "eu")
	require.NoError(t, err)
	require.Len(t, listings, 1)

	got := listings[0]
	assert.Equal(t, "aliexpress_1005004123456789", got.ID)
	assert.Equal(t, "Wireless Bluetooth Headphones Noise Cancelling", got.Title)
	assert.Equal(t, 35.99, got.Price)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "https://www.aliexpress.com/item/1005004123456789.html", got.URL)
	assert.Equal(t, "https://ae01.alicdn.com/kf/headphones.jpg", got.ImageURL)
	require.NotNil(t, got.OriginalPrice)
	assert.Equal(t, 59.99, *got.OriginalPrice)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.7, *got.Rating)
	assert.Equal(t, 3412, got.ReviewCount)
	assert.True(t, got.FreeShipping)

	assert.Contains(t, fetcher.lastURL, "wholesale?SearchText=wireless+headphones")
}

func TestDetectCurrency(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"$19.99", "USD"},
		{"€35.99", "EUR"},
		{"£24.50", "GBP"},
		{"¥3,200", "JPY"},
		{"19.99", "USD"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, detectCurrency(tc.text), tc.text)
	}
}
