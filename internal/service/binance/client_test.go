package binance

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseKline(t *testing.T) {
	row := json.RawMessage(`[1724716800000,"50000.1","50100.5","49900.0","50050.2","1234.5",1724717699999,"61790000.0",4321,"700.25","35050000.0","0"]`)
	c, err := parseKline(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.OpenTime.Equal(time.UnixMilli(1724716800000).UTC()) {
		t.Fatalf("unexpected open time %v", c.OpenTime)
	}
	if c.Open != 50000.1 || c.High != 50100.5 || c.Low != 49900.0 || c.Close != 50050.2 {
		t.Fatalf("unexpected ohlc %+v", c)
	}
	if c.Volume != 1234.5 {
		t.Fatalf("unexpected volume %v", c.Volume)
	}
	if c.TakerBuyBase != 700.25 {
		t.Fatalf("unexpected taker buy base %v", c.TakerBuyBase)
	}
	if c.Trades != 4321 {
		t.Fatalf("unexpected trades %v", c.Trades)
	}
}

func TestParseKlineShortRow(t *testing.T) {
	row := json.RawMessage(`[1724716800000,"1.0"]`)
	if _, err := parseKline(row); err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestParseKlineBadNumber(t *testing.T) {
	row := json.RawMessage(`[1724716800000,"x","1","1","1","1",0,"1",1,"1","1","0"]`)
	if _, err := parseKline(row); err == nil {
		t.Fatalf("expected error for bad number")
	}
}
