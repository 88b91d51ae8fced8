// Package monitoring turns a running rig into a web server that shows the
// sweep progress and lets a user pause and inspect the simulation.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/retention/monitoring/web"
	"github.com/sarchlab/retention/sim/id"
	"github.com/sarchlab/retention/sim/modeling"
	"github.com/sarchlab/retention/sim/timing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine     timing.Engine
	registry   *timing.FrequencyRegistry
	components []modeling.Component
	portNumber int
	url        string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	resultsLock sync.Mutex
	results     []PointResult
	maxResults  int
}

var barIDs = id.NewXIDGenerator()

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{maxResults: 256}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// RegisterFrequencyRegistry lets the monitor report time in seconds.
func (m *Monitor) RegisterFrequencyRegistry(r *timing.FrequencyRegistry) {
	m.registry = r
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(c modeling.Component) {
	m.components = append(m.components, c)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        barIDs.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// AddResult keeps a finished point for the results page. Only the most
// recent points are kept.
func (m *Monitor) AddResult(r PointResult) {
	m.resultsLock.Lock()
	defer m.resultsLock.Unlock()

	m.results = append(m.results, r)
	if len(m.results) > m.maxResults {
		m.results = m.results[len(m.results)-m.maxResults:]
	}
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/tick/{name}", m.tick)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/results", m.listResults)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		log.Panic(err)
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	handler := m.router()

	go func() {
		if err := http.Serve(listener, handler); err != nil {
			log.Panic(err)
		}
	}()
}

// OpenInBrowser opens the monitoring page with the default browser.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return fmt.Errorf("monitoring server is not started")
	}

	return browser.OpenURL(m.url)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

type nowRsp struct {
	Cycle   uint64  `json:"cycle"`
	Seconds float64 `json:"seconds"`
	Events  uint64  `json:"events"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	rsp := nowRsp{Cycle: uint64(now), Events: m.engine.EventsHandled()}

	if m.registry != nil {
		rsp.Seconds = float64(m.registry.CyclesToSeconds(now))
	}

	writeJSON(w, rsp)
}

// run restarts an engine whose Run returned, for example after the rig was
// reset from a handler.
func (m *Monitor) run(w http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := m.engine.Run(); err != nil {
			log.Printf("monitor: run: %v", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

type waker interface {
	Wake()
}

func (m *Monitor) tick(w http.ResponseWriter, r *http.Request) {
	comp, ok := m.component(w, mux.Vars(r)["name"])
	if !ok {
		return
	}

	wakeable, ok := comp.(waker)
	if !ok {
		http.Error(w, "component does not tick", http.StatusMethodNotAllowed)
		return
	}

	wakeable.Wake()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	comp, ok := m.component(w, mux.Vars(r)["name"])
	if !ok {
		return
	}

	serialize(w, comp, nil)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	comp, ok := m.component(w, req.CompName)
	if !ok {
		return
	}

	serialize(w, comp, strings.Split(req.FieldName, "."))
}

// serialize writes one level of v, starting at the field path entry when it
// is given.
func serialize(w http.ResponseWriter, v any, entry []string) {
	s := goseth.NewSerializer()
	s.SetRoot(v)
	s.SetMaxDepth(1)

	if entry != nil {
		if err := s.SetEntryPoint(entry); err != nil {
			http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := s.Serialize(w); err != nil {
		log.Printf("monitor: serialize: %v", err)
	}
}

func (m *Monitor) component(
	w http.ResponseWriter,
	name string,
) (modeling.Component, bool) {
	for _, c := range m.components {
		if c.Name() == name {
			return c, true
		}
	}

	http.Error(w, "Component not found", http.StatusNotFound)

	return nil, false
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(m.progressBars))

	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

func (m *Monitor) listResults(w http.ResponseWriter, r *http.Request) {
	m.resultsLock.Lock()
	results := make([]PointResult, len(m.results))
	copy(results, m.results)
	m.resultsLock.Unlock()

	if s := r.URL.Query().Get("failed"); s == "true" || s == "1" {
		failed := results[:0]

		for _, res := range results {
			if !res.Passed {
				failed = append(failed, res)
			}
		}

		results = failed
	}

	writeJSON(w, results)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	rsp, err := resources()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, rsp)
}

func resources() (resourceRsp, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, err
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		return resourceRsp{}, err
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return resourceRsp{}, err
	}

	return resourceRsp{CPUPercent: cpu, MemorySize: mem.RSS}, nil
}

// collectProfile samples the CPU for a second and returns the parsed
// profile.
func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		log.Printf("monitor: write: %v", err)
	}
}
