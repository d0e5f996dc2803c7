package charts

import (
	"encoding/json"
	"fmt"
	"html"
)

// EChartsCDN is the script every snippet depends on
const EChartsCDN = "https://cdn.jsdelivr.net/npm/echarts@5.4.3/dist/echarts.min.js"

// ChartSnippet represents an embeddable ECharts chart fragment.
// Div holds a single root <div id="..."></div>, Script the <script> block that
// initializes the chart in that div, and HTML both plus the library tag.
type ChartSnippet struct {
	ID     string
	Title  string
	Div    string
	Script string
	HTML   string
}

// newSnippet wires an option object into a div. setup is JavaScript run with
// `c` bound to the chart instance and `option` to the option object.
func newSnippet(id, title string, height int, option interface{}, setup string) (ChartSnippet, error) {
	optJSON, err := json.Marshal(option)
	if err != nil {
		return ChartSnippet{}, fmt.Errorf("failed to encode %s option: %w", id, err)
	}

	div := fmt.Sprintf(`<div id="%s" class="emotion-chart-canvas" style="width:100%%;height:%dpx;"></div>`, id, height)
	script := fmt.Sprintf(`<script>(function(){var el=document.getElementById('%s');if(!el)return;var c=echarts.init(el);var option=%s;%s
c.setOption(option);window.addEventListener('resize',function(){c.resize();});})();</script>`, id, optJSON, setup)

	complete := fmt.Sprintf(`<script src="%s"></script>
<div class="chart-container">
	<h3>%s</h3>
	%s
</div>
%s`, EChartsCDN, html.EscapeString(title), div, script)

	return ChartSnippet{ID: id, Title: title, Div: div, Script: script, HTML: complete}, nil
}
