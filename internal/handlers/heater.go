package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"water_heater"
)

// statusPageHTML is the on-device control page: a temperature slider, a
// start/stop button and a live readout fed by the /ws stream. Kept inline so
// the firmware image stays a single binary.
const statusPageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Water Heater</title>
<style>
body { font-family: sans-serif; max-width: 28em; margin: 2em auto; }
.temp { font-size: 3em; }
.HEATING { color: #d9534f; }
.OFF { color: #5bc0de; }
.TIMED_OUT { color: #f0ad4e; }
</style>
</head>
<body>
<h1>Water Heater</h1>
<p><span id="temp" class="temp">{{.TempC}}</span>&deg;C
<span id="status" class="{{.Status}}">{{.Status}}</span>
<span id="timer">{{.Timer}}</span></p>
<p><input id="slider" type="range" min="{{.MinC}}" max="{{.MaxC}}" value="{{.SetpointC}}"
onchange="fetch('/slider?value='+this.value)">
<span id="setpoint">{{.SetpointC}}</span>&deg;C</p>
<p><button onclick="fetch('/toggle?action=start')">Start</button>
<button onclick="fetch('/toggle?action=stop')">Stop</button></p>
<script>
const ws = new WebSocket('ws://' + location.host + '/ws');
ws.onmessage = function (ev) {
  const rec = JSON.parse(ev.data);
  document.getElementById('temp').textContent = rec.temp;
  const st = document.getElementById('status');
  st.textContent = rec.status;
  st.className = rec.status;
  document.getElementById('timer').textContent = rec.timer;
};
document.getElementById('slider').oninput = function () {
  document.getElementById('setpoint').textContent = this.value;
};
</script>
</body>
</html>
`

// statusPage godoc
// @Summary      Control page
// @Description  Serves the on-device HTML control page
// @Tags         control
// @Produce      html
// @Success      200 {string} string "HTML page"
// @Router       / [get]
func (h *Handler) statusPage(c *gin.Context) {
	state, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.log.Errorw("status page state read failed", "error", err)
		c.String(http.StatusInternalServerError, "state unavailable")
		return
	}
	rec := water_heater.BuildTelemetry(state, time.Now())
	c.HTML(http.StatusOK, "status", gin.H{
		"TempC":     rec.TempC,
		"Status":    rec.Status,
		"Timer":     rec.Timer,
		"SetpointC": state.SetpointC,
		"MinC":      h.services.SetpointMinC,
		"MaxC":      h.services.SetpointMaxC,
	})
}

// setSetpoint godoc
// @Summary      Set target temperature
// @Description  Stores the slider value as the new target temperature. A missing or malformed value is ignored so a glitchy client cannot wedge the page.
// @Tags         control
// @Produce      json
// @Param        value query number true "target temperature in Celsius"
// @Success      200 {object} map[string]interface{}
// @Router       /slider [get]
func (h *Handler) setSetpoint(c *gin.Context) {
	raw, ok := c.GetQuery("value")
	if !ok {
		h.log.Warnw("slider request without value, ignored")
		c.JSON(http.StatusOK, gin.H{"result": "ignored"})
		return
	}
	celsius, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.log.Warnw("slider value unparseable, ignored", "value", raw)
		c.JSON(http.StatusOK, gin.H{"result": "ignored"})
		return
	}
	if err := h.services.Heater.SetSetpoint(c.Request.Context(), celsius); err != nil {
		h.log.Warnw("slider value rejected", "value", celsius, "error", err)
		c.JSON(http.StatusOK, gin.H{"result": "ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "ok", "setpoint": celsius})
}

// toggle godoc
// @Summary      Start or stop heating
// @Description  Starts a heating session (restarting its countdown) or stops it immediately. Unknown actions are ignored.
// @Tags         control
// @Produce      json
// @Param        action query string true "start or stop"
// @Success      200 {object} map[string]interface{}
// @Router       /toggle [get]
func (h *Handler) toggle(c *gin.Context) {
	action := c.Query("action")
	var err error
	switch action {
	case "start":
		err = h.services.Heater.Start(c.Request.Context())
	case "stop":
		err = h.services.Heater.Stop(c.Request.Context())
	default:
		h.log.Warnw("toggle with unknown action, ignored", "action", action)
		c.JSON(http.StatusOK, gin.H{"result": "ignored"})
		return
	}
	if err != nil {
		h.log.Errorw("toggle failed", "action", action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": action})
}

// health godoc
// @Summary      Health check
// @Description  Returns the current reading and status without touching the relay
// @Tags         monitoring
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	state, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"heater": state.Status,
		"temp":   state.LastTempC,
	})
}
