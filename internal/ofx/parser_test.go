package ofx

import (
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250615120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20250601120000[0:GMT]
<DTEND>20250630120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250610120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2025061001
<NAME>COFFEECO ORCHARD
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250615120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2025061501
<NAME>MARTX EXPRESS
</STMTTRN>
<STMTTRN>
<TRNTYPE>PAYMENT
<DTPOSTED>20250620120000[0:GMT]
<TRNAMT>250.00
<FITID>CC2025062001
<NAME>PAYMENT RECEIVED - THANK YOU
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20250630120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 3,
			expectedError: false,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedCount: 0,
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedCount: 0,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			reader := strings.NewReader(tt.ofxData)

			transactions, err := parser.ParseFile(reader, "card-1")

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleCreditCardOFX)

	transactions, err := parser.ParseFile(reader, "card-1")
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	tx1 := transactions[0]
	assert.Equal(t, "CC2025061001", tx1.ID)
	assert.Equal(t, "card-1", tx1.CardID)
	assert.Equal(t, "COFFEECO ORCHARD", tx1.Description)
	assert.Equal(t, 45.99, tx1.Amount)
	assert.False(t, tx1.IsPayment)
	assert.NotEmpty(t, tx1.Hash)
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2025, tx1.Date.Year())
	assert.Equal(t, time.June, tx1.Date.Month())
	assert.Equal(t, 10, tx1.Date.Day())

	tx2 := transactions[1]
	assert.Equal(t, "MARTX EXPRESS", tx2.Description)
	assert.Equal(t, 15.00, tx2.Amount)
	assert.False(t, tx2.IsPayment)

	// Statement payment: amount stays positive, flag marks it.
	tx3 := transactions[2]
	assert.Equal(t, "PAYMENT RECEIVED - THANK YOU", tx3.Description)
	assert.Equal(t, 250.00, tx3.Amount)
	assert.True(t, tx3.IsPayment)
}

func TestExtractDescription(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE COFFEECO",
			expected: "COFFEECO",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE MARTX",
			expected: "MARTX",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
		{
			name:     "strip leading date",
			input:    "06/15 COFFEECO ORCHARD",
			expected: "COFFEECO ORCHARD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
			}
			result := parser.extractDescription(tx)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsPaymentType(t *testing.T) {
	assert.True(t, isPaymentType("PAYMENT"))
	assert.True(t, isPaymentType("XFER"))
	assert.True(t, isPaymentType("DIRECTDEP"))
	assert.False(t, isPaymentType("DEBIT"))
	assert.False(t, isPaymentType("CREDIT"))
	assert.False(t, isPaymentType("FEE"))
}

func TestCategoryHint(t *testing.T) {
	assert.Equal(t, "interest", categoryHint("INT"))
	assert.Equal(t, "fees", categoryHint("FEE"))
	assert.Equal(t, "fees", categoryHint("SRVCHG"))
	assert.Equal(t, "cash", categoryHint("ATM"))
	assert.Equal(t, "", categoryHint("DEBIT"))
}
