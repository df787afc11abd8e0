package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL  = flag.String("api-url", "http://127.0.0.1:8000", "emotedex API base URL")
	runs    = flag.Int("runs", 5, "Number of requests per endpoint; the first one is the cold run")
	refresh = flag.Bool("refresh", true, "Force a catalog refresh before measuring, so the first search is cold")
	emotes  = flag.String("emotes", "", "Comma-separated emote names for detail probes (default: first 3 search results)")
	output  = flag.String("output", "benchmark-results.json", "JSON output file path")
)

type runResult struct {
	Run        int    `json:"run"`
	StatusCode int    `json:"status_code"`
	TotalMs    int64  `json:"total_ms"`
	Error      string `json:"error,omitempty"`
}

type endpointResult struct {
	Label  string      `json:"label"`
	Path   string      `json:"path"`
	Runs   []runResult `json:"runs"`
	ColdMs int64       `json:"cold_ms"`
	WarmMs float64     `json:"warm_avg_ms"`
}

type benchmarkReport struct {
	Timestamp string           `json:"timestamp"`
	APIURL    string           `json:"api_url"`
	Runs      int              `json:"runs"`
	Results   []endpointResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== emotedex cache benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 150 * time.Second}

	if *refresh {
		fmt.Print("Refreshing catalog ... ")
		rr := timedRequest(client, http.MethodPost, *apiURL+"/api/refresh", 0)
		if rr.Error != "" {
			fmt.Printf("FAILED: %s\n", rr.Error)
		} else {
			fmt.Printf("OK  %dms\n", rr.TotalMs)
		}
	}

	report := benchmarkReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		APIURL:    *apiURL,
		Runs:      *runs,
	}

	report.Results = append(report.Results, measure(client, "search (all)", "/api/emotes?limit=2000"))
	report.Results = append(report.Results, measure(client, "search (term)", "/api/emotes?q=gold"))

	for _, name := range detailTargets(client) {
		report.Results = append(report.Results, measure(client, "detail "+name, "/api/emotes/"+url.PathEscape(name)))
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// detailTargets returns the emote names to probe, from the flag or the catalog.
func detailTargets(client *http.Client) []string {
	if *emotes != "" {
		var names []string
		for _, n := range strings.Split(*emotes, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		return names
	}

	resp, err := client.Get(*apiURL + "/api/emotes?limit=3")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	var body struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	names := make([]string, 0, len(body.Items))
	for _, it := range body.Items {
		names = append(names, it.Name)
	}
	return names
}

// measure issues the same request *runs times. The first run may hit a
// stale cache and render; the rest should be served from memory.
func measure(client *http.Client, label, path string) endpointResult {
	fmt.Printf("Benchmarking [%s] ...\n", label)
	er := endpointResult{Label: label, Path: path}

	for i := 1; i <= *runs; i++ {
		fmt.Printf("  Run %d/%d ... ", i, *runs)
		rr := timedRequest(client, http.MethodGet, *apiURL+path, i)
		if rr.Error == "" {
			fmt.Printf("OK  %dms\n", rr.TotalMs)
		} else {
			fmt.Printf("FAILED: %s\n", rr.Error)
		}
		er.Runs = append(er.Runs, rr)
	}

	er.ColdMs, er.WarmMs = coldWarm(er.Runs)
	fmt.Println()
	return er
}

func timedRequest(client *http.Client, method, target string, run int) runResult {
	rr := runResult{Run: run}

	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	rr.TotalMs = time.Since(start).Milliseconds()
	rr.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &e) == nil && e.Detail != "" {
			rr.Error = e.Detail
		} else {
			rr.Error = resp.Status
		}
	}
	return rr
}

// coldWarm returns the first successful latency and the mean of the others.
func coldWarm(runs []runResult) (int64, float64) {
	var ok []runResult
	for _, r := range runs {
		if r.Error == "" {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return 0, 0
	}
	sort.SliceStable(ok, func(i, j int) bool { return ok[i].Run < ok[j].Run })

	cold := ok[0].TotalMs
	if len(ok) == 1 {
		return cold, 0
	}
	var sum int64
	for _, r := range ok[1:] {
		sum += r.TotalMs
	}
	return cold, float64(sum) / float64(len(ok)-1)
}

func printTable(results []endpointResult) {
	fmt.Println(strings.Repeat("─", 70))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Endpoint\tCold\tWarm (avg)\tFailures\n")
	fmt.Fprintf(w, "────────\t────\t──────────\t────────\n")

	for _, r := range results {
		failures := 0
		for _, rr := range r.Runs {
			if rr.Error != "" {
				failures++
			}
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1fms\t%d\n", truncate(r.Label, 40), r.ColdMs, r.WarmMs, failures)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 70))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
