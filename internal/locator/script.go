package locator

import (
	"encoding/json"
	"fmt"
)

// resolverJS evaluates a step list (bound to "steps") against the document and
// leaves the matches in "els". Text and name matching follow the browser's
// non-exact semantics: case-insensitive substring on whitespace-collapsed text,
// ignoring script and style content. Role steps skip elements hidden from the
// accessibility tree.
const resolverJS = `
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
	const skipText = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'HEAD', 'TEMPLATE']);
	const textOf = (root) => {
		let out = '';
		const walk = (n) => {
			if (n.nodeType === Node.TEXT_NODE) {
				out += n.nodeValue;
				return;
			}
			if (n.nodeType !== Node.ELEMENT_NODE || skipText.has(n.nodeName)) return;
			for (const c of n.childNodes) walk(c);
		};
		for (const c of root.childNodes) walk(c);
		return out;
	};
	const hiddenForAria = (el) => {
		for (let e = el; e && e.nodeType === Node.ELEMENT_NODE; e = e.parentElement) {
			if ((e.getAttribute('aria-hidden') || '').toLowerCase() === 'true') return true;
			if (window.getComputedStyle(e).display === 'none') return true;
		}
		const v = window.getComputedStyle(el).visibility;
		return v === 'hidden' || v === 'collapse';
	};
	const implicitRole = (el) => {
		const tag = el.tagName.toLowerCase();
		if (tag === 'button') return 'button';
		if (tag === 'input') {
			const t = (el.getAttribute('type') || 'text').toLowerCase();
			if (['button', 'submit', 'reset', 'image'].includes(t)) return 'button';
			if (t === 'checkbox') return 'checkbox';
			if (t === 'radio') return 'radio';
			return 'textbox';
		}
		if (tag === 'a' && el.hasAttribute('href')) return 'link';
		if (/^h[1-6]$/.test(tag)) return 'heading';
		if (tag === 'li') return 'listitem';
		if (tag === 'ul' || tag === 'ol') return 'list';
		if (tag === 'textarea') return 'textbox';
		return '';
	};
	const roleOf = (el) => {
		const explicit = (el.getAttribute('role') || '').trim().split(/\s+/)[0];
		return explicit ? explicit.toLowerCase() : implicitRole(el);
	};
	const nameOf = (el) => {
		const ids = (el.getAttribute('aria-labelledby') || '').trim();
		if (ids) {
			const text = ids.split(/\s+/).map((id) => {
				const ref = document.getElementById(id);
				return ref ? textOf(ref) : '';
			}).join(' ');
			if (norm(text)) return text;
		}
		const label = el.getAttribute('aria-label');
		if (label && norm(label)) return label;
		if (el.tagName.toLowerCase() === 'input' && el.value) return el.value;
		const text = textOf(el);
		if (norm(text)) return text;
		return el.getAttribute('title') || '';
	};
	let els = [document];
	for (const st of steps) {
		const next = [];
		for (const root of els) {
			if (st.kind === 'css') {
				for (const el of root.querySelectorAll(st.selector)) {
					if (st.hasText && !norm(textOf(el)).includes(norm(st.hasText))) continue;
					next.push(el);
				}
			} else {
				for (const el of root.querySelectorAll('*')) {
					if (roleOf(el) !== st.role || hiddenForAria(el)) continue;
					if (st.name && !norm(nameOf(el)).includes(norm(st.name))) continue;
					next.push(el);
				}
			}
		}
		els = Array.from(new Set(next));
	}
`

// visibleJS is true when el has a non-empty box and is not visibility:hidden.
const visibleJS = `
	const isVisible = (el) => {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 && style.visibility !== 'hidden';
	};
`

func (l Locator) stepsJSON() string {
	// Step holds only strings; Marshal cannot fail.
	b, _ := json.Marshal(l.steps)
	return string(b)
}

// FirstScript returns a JS expression evaluating to the first match or null.
func (l Locator) FirstScript() string {
	return fmt.Sprintf("(() => {\n\tconst steps = %s;\n%s\n\treturn els.length > 0 ? els[0] : null;\n})()", l.stepsJSON(), resolverJS)
}

// VisibleScript returns a JS expression that is true when the first match
// exists and is visible.
func (l Locator) VisibleScript() string {
	return fmt.Sprintf("(() => {\n\tconst steps = %s;\n%s%s\n\treturn els.length > 0 && isVisible(els[0]);\n})()", l.stepsJSON(), resolverJS, visibleJS)
}
