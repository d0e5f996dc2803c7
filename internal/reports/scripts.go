package reports

import (
	"fmt"
	"html/template"
)

// sliderReloadScript rebuilds the ECharts streamgraph by reloading the page
// with the chosen chunk size. The display follows the slider while dragging.
const sliderReloadScript = `<script>(function(){var s=document.getElementById('chunk-slider'),d=document.getElementById('chunk-display');if(!s)return;
s.addEventListener('input',function(){d.textContent='Chunk: '+s.value;});
s.addEventListener('change',function(){var u=new URL(window.location.href);u.searchParams.set('chunk',s.value);window.location.href=u.toString();});})();</script>`

// liveScriptTemplate drives a server-side view over /ws/live. The server
// answers every message with a scene, hover, paragraph or frame message.
const liveScriptTemplate = `<script>(function(){var root=document.getElementById('emotion-chart');var panel=document.querySelector('.paragraph p');
var tip=document.createElement('div');tip.className='tooltip';document.body.appendChild(tip);
var proto=location.protocol==='https:'?'wss://':'ws://';var ws=new WebSocket(proto+location.host+'/ws/live'+%s);
function send(m){if(ws.readyState===1){ws.send(JSON.stringify(m));}}
ws.onmessage=function(e){var m=JSON.parse(e.data);
if(m.type==='scene'||m.type==='frame'){root.innerHTML=m.svg;var d=document.getElementById('chunk-display');if(d&&m.chunk){d.textContent=m.chunk;}}
else if(m.type==='hover'){var h=m.hover,t=h.tooltip;
if(h.marker_id){var c=document.getElementById(h.marker_id);if(c){c.setAttribute('r',h.active?8:5);}}
var hl=root.querySelector('.hover-line');if(hl){if(h.hover_line){hl.setAttribute('x1',h.hover_line.x1);hl.setAttribute('x2',h.hover_line.x2);hl.setAttribute('opacity',h.hover_line.visible?1:0);}else if(!h.active){hl.setAttribute('opacity',0);}}if(t){tip.innerHTML=t.html;tip.style.opacity=t.opacity;tip.style.left=t.left+'px';tip.style.top=t.top+'px';}if(panel&&h.paragraph!==undefined){panel.textContent=h.paragraph;}}
else if(m.type==='paragraph'){if(panel){panel.textContent=m.paragraph;}}
else if(m.type==='error'){console.warn(m.error);}};
root.addEventListener('mousemove',function(e){var svg=root.querySelector('svg');if(!svg)return;var r=svg.getBoundingClientRect();
var t=e.target;if(t&&t.classList&&t.classList.contains('dot')){send({type:'enter',marker:t.id,pageX:e.pageX,pageY:e.pageY});return;}
send({type:'pointer',x:e.clientX-r.left,y:e.clientY-r.top,pageX:e.pageX,pageY:e.pageY});});
root.addEventListener('mouseout',function(e){var t=e.target;if(t&&t.classList&&t.classList.contains('dot')){send({type:'leave',marker:t.id});}});
root.addEventListener('mouseleave',function(){send({type:'leave'});});
root.addEventListener('click',function(e){var t=e.target;if(t&&t.classList&&t.classList.contains('dot')){send({type:'click',marker:t.id});}});
var s=document.getElementById('chunk-slider');if(s){s.addEventListener('input',function(){document.getElementById('chunk-display').textContent='Chunk: '+s.value;});
s.addEventListener('change',function(){send({type:'chunk',size:parseInt(s.value,10)});});}
window.addEventListener('resize',function(){send({type:'resize',width:root.clientWidth});});
var pause=document.getElementById('pause');if(pause){pause.addEventListener('click',function(){send({type:'stop'});});}
ws.onopen=function(){send({type:'resize',width:root.clientWidth});%s};})();</script>`

// liveScript returns the live view script. With animate set the session
// starts the transitions animator as soon as it connects.
func liveScript(animate bool) template.HTML {
	query, onOpen := "location.search", ""
	if animate {
		query, onOpen = "'?mode=transitions'", "send({type:'animate'});"
	}
	return template.HTML(fmt.Sprintf(liveScriptTemplate, query, onOpen))
}
